package studio_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"revostream/internal/engine"
	"revostream/internal/engine/memengine"
	"revostream/internal/services"
	"revostream/internal/studio"
)

func startedRuntime(t *testing.T, opts ...memengine.Option) (*studio.Runtime, *memengine.Engine) {
	t.Helper()
	eng := memengine.New(opts...)
	rt := studio.New(eng)
	msg, err := rt.Start(context.Background(), studio.StartOptions{
		RootDir:         t.TempDir(),
		SceneResolution: "1280x720",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if msg != "engine initialized" {
		t.Fatalf("unexpected start message %q", msg)
	}
	return rt, eng
}

func sceneNames(t *testing.T, rt *studio.Runtime) []string {
	t.Helper()
	scenes, err := rt.ListScenes(context.Background())
	if err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	names := make([]string, 0, len(scenes))
	for _, s := range scenes {
		names = append(names, s.Name)
	}
	return names
}

func TestOperationsRequireStart(t *testing.T) {
	rt := studio.New(memengine.New())
	ctx := context.Background()

	scenes, err := rt.ListScenes(ctx)
	if err != nil || len(scenes) != 0 {
		t.Fatalf("expected empty scene list before start, got %v %v", scenes, err)
	}
	_, err = rt.CreateScene(ctx, "Main")
	if !errors.Is(err, services.ErrNotInitialized) {
		t.Fatalf("expected not-initialized error, got %v", err)
	}
	if err.Error() != "engine not initialized" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	msg, err := rt.Shutdown(ctx)
	if err != nil || msg != "engine already shut down" {
		t.Fatalf("unexpected shutdown result %q %v", msg, err)
	}
}

func TestStartTwiceReportsAlreadyInitialized(t *testing.T) {
	rt, _ := startedRuntime(t)
	msg, err := rt.Start(context.Background(), studio.StartOptions{})
	if err != nil || msg != "engine already initialized" {
		t.Fatalf("unexpected result %q %v", msg, err)
	}
}

func TestStartResetFailureLeavesRuntimeIdle(t *testing.T) {
	eng := memengine.New()
	eng.FailReset(true)
	rt := studio.New(eng)
	_, err := rt.Start(context.Background(), studio.StartOptions{SceneResolution: "1280x720"})
	if err == nil || err.Error() != "engine reset video/audio failed" {
		t.Fatalf("expected reset failure, got %v", err)
	}
	if eng.Started() {
		t.Fatalf("engine should be shut down after a failed start")
	}
	status, _ := rt.Status(context.Background())
	if status.Initialized {
		t.Fatalf("runtime should stay idle")
	}
}

func TestCreateSceneAppendsAndShows(t *testing.T) {
	rt, eng := startedRuntime(t)
	ctx := context.Background()

	if msg, err := rt.CreateScene(ctx, "Intro"); err != nil || msg != "created Intro" {
		t.Fatalf("CreateScene: %q %v", msg, err)
	}
	if _, err := rt.CreateScene(ctx, "Outro"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	got := strings.Join(sceneNames(t, rt), ",")
	if got != "revo_scene,Intro,Outro" {
		t.Fatalf("unexpected order %s", got)
	}
	current, _ := rt.CurrentScene(ctx)
	if current != "Outro" {
		t.Fatalf("expected Outro current, got %q", current)
	}

	scenes, _ := rt.ListScenes(ctx)
	active := 0
	for _, s := range scenes {
		if s.Active {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active scene, got %d", active)
	}
	if n := eng.Showing(eng.OutputSource(0)); n != 1 {
		t.Fatalf("program output should be showing once, got %d", n)
	}

	_, err := rt.CreateScene(ctx, "Intro")
	if !errors.Is(err, services.ErrConflict) || err.Error() != "scene already exists" {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := rt.CreateScene(ctx, "  "); err == nil || err.Error() != "scene name required" {
		t.Fatalf("expected name required, got %v", err)
	}
}

func TestSwitchingScenesMovesShowingCount(t *testing.T) {
	rt, eng := startedRuntime(t)
	ctx := context.Background()

	first := eng.OutputSource(0)
	if _, err := rt.CreateScene(ctx, "Second"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	second := eng.OutputSource(0)
	if first == second {
		t.Fatalf("program output should follow the new scene")
	}
	if eng.Showing(first) != 0 || eng.Showing(second) != 1 {
		t.Fatalf("unexpected showing counts %d %d", eng.Showing(first), eng.Showing(second))
	}

	if msg, err := rt.SetCurrentScene(ctx, "revo_scene"); err != nil || msg != "active scene: revo_scene" {
		t.Fatalf("SetCurrentScene: %q %v", msg, err)
	}
	// Switching to the showing scene is a no-op.
	if _, err := rt.SetCurrentScene(ctx, "revo_scene"); err != nil {
		t.Fatalf("SetCurrentScene: %v", err)
	}
	if eng.Showing(first) != 1 || eng.Showing(second) != 0 {
		t.Fatalf("unexpected showing counts after switch back %d %d", eng.Showing(first), eng.Showing(second))
	}
	if _, err := rt.SetCurrentScene(ctx, "Missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveSceneProtectsLastScene(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	_, err := rt.RemoveScene(ctx, "revo_scene")
	if err == nil || err.Error() != "cannot remove last scene" {
		t.Fatalf("expected last-scene protection, got %v", err)
	}
	if _, err := rt.CreateScene(ctx, "Zeta"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if _, err := rt.CreateScene(ctx, "Alpha"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if msg, err := rt.RemoveScene(ctx, "Alpha"); err != nil || msg != "removed Alpha" {
		t.Fatalf("RemoveScene: %q %v", msg, err)
	}
	// The sorted-first remaining scene takes over.
	current, _ := rt.CurrentScene(ctx)
	if current != "Zeta" {
		t.Fatalf("expected Zeta promoted, got %q", current)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "revo_scene,Zeta" {
		t.Fatalf("unexpected scenes %s", got)
	}
}

func TestLockedSceneRejectsRenameAndRemove(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	if _, err := rt.CreateScene(ctx, "Stage"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if msg, err := rt.SetSceneLock(ctx, "Stage", true); err != nil || msg != "scene Stage lock=true" {
		t.Fatalf("SetSceneLock: %q %v", msg, err)
	}
	if _, err := rt.RenameScene(ctx, "Stage", "Other"); err == nil || err.Error() != "scene is locked" {
		t.Fatalf("expected locked rename to fail, got %v", err)
	}
	if _, err := rt.RemoveScene(ctx, "Stage"); err == nil || err.Error() != "scene is locked" {
		t.Fatalf("expected locked remove to fail, got %v", err)
	}
	scenes, _ := rt.ListScenes(ctx)
	if !scenes[1].Locked {
		t.Fatalf("expected Stage locked in listing: %+v", scenes)
	}

	if _, err := rt.SetSceneLock(ctx, "Stage", false); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := rt.RenameScene(ctx, "Stage", "Other"); err != nil {
		t.Fatalf("RenameScene after unlock: %v", err)
	}
	scenes, _ = rt.ListScenes(ctx)
	if scenes[1].Name != "Other" || scenes[1].Locked {
		t.Fatalf("expected unlocked Other after rename: %+v", scenes)
	}
}

func TestRenameScenePreservesOrderAndCurrent(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		if _, err := rt.CreateScene(ctx, name); err != nil {
			t.Fatalf("CreateScene %s: %v", name, err)
		}
	}
	if msg, err := rt.RenameScene(ctx, "B", "Bee"); err != nil || msg != "renamed B to Bee" {
		t.Fatalf("RenameScene: %q %v", msg, err)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "revo_scene,A,Bee" {
		t.Fatalf("unexpected order %s", got)
	}
	if current, _ := rt.CurrentScene(ctx); current != "Bee" {
		t.Fatalf("current should follow the rename, got %q", current)
	}
	if _, err := rt.RenameScene(ctx, "A", "Bee"); err == nil || err.Error() != "scene name already exists" {
		t.Fatalf("expected rename collision, got %v", err)
	}
	if _, err := rt.RenameScene(ctx, "Nope", "Other"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReorderScene(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		if _, err := rt.CreateScene(ctx, name); err != nil {
			t.Fatalf("CreateScene %s: %v", name, err)
		}
	}
	if _, err := rt.ReorderScene(ctx, "B", 0); err != nil {
		t.Fatalf("ReorderScene: %v", err)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "B,revo_scene,A" {
		t.Fatalf("unexpected order %s", got)
	}
	// Moving down counts the target slot before removal.
	if _, err := rt.ReorderScene(ctx, "revo_scene", 3); err != nil {
		t.Fatalf("ReorderScene: %v", err)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "B,A,revo_scene" {
		t.Fatalf("unexpected order %s", got)
	}
	if _, err := rt.ReorderScene(ctx, "A", 99); err != nil {
		t.Fatalf("ReorderScene: %v", err)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "B,revo_scene,A" {
		t.Fatalf("out-of-range target should clamp, got %s", got)
	}
}

func TestSourceCreateListRemove(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	msg, err := rt.CreateSource(ctx, studio.SourceCreate{
		ID:     "logo",
		Name:   "Logo",
		Type:   "image_source",
		Params: map[string]string{"file": "/tmp/logo.png", "pos_x": "12", "pos_y": "34"},
	})
	if err != nil || msg != "created logo" {
		t.Fatalf("CreateSource: %q %v", msg, err)
	}
	sources, err := rt.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected one source, got %+v", sources)
	}
	src := sources[0]
	if src.ID != "logo" || src.Name != "Logo" || src.SourceType != "image_source" || !src.Visible {
		t.Fatalf("unexpected source %+v", src)
	}
	if src.Params["file"] != "/tmp/logo.png" || src.Params["pos_x"] != "12" || src.Params["pos_y"] != "34" {
		t.Fatalf("unexpected params %v", src.Params)
	}

	_, err = rt.CreateSource(ctx, studio.SourceCreate{ID: "logo", Type: "image_source"})
	if err == nil || err.Error() != "source id already exists" {
		t.Fatalf("expected duplicate id, got %v", err)
	}

	if msg, err := rt.RemoveSource(ctx, "logo"); err != nil || msg != "removed logo" {
		t.Fatalf("RemoveSource: %q %v", msg, err)
	}
	sources, _ = rt.ListSources(ctx)
	if len(sources) != 0 {
		t.Fatalf("expected no sources, got %+v", sources)
	}
	if _, err := rt.RemoveSource(ctx, "logo"); err == nil || err.Error() != "unknown source id" {
		t.Fatalf("expected unknown id, got %v", err)
	}
}

func TestRemovedIDFallsBackToNameScan(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: "logo", Name: "Logo Pic", Type: "image_source"}); err != nil {
		t.Fatalf("CreateSource logo: %v", err)
	}
	if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: "other", Name: "logo", Type: "color_source"}); err != nil {
		t.Fatalf("CreateSource other: %v", err)
	}
	if _, err := rt.RemoveSource(ctx, "logo"); err != nil {
		t.Fatalf("RemoveSource: %v", err)
	}
	if err := rt.SetSourceVisible(ctx, "logo", false); err != nil {
		t.Fatalf("expected name scan to reach the item named logo, got %v", err)
	}
	sources, err := rt.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 1 || sources[0].ID != "other" || sources[0].Visible {
		t.Fatalf("unexpected sources %+v", sources)
	}
}

func TestCreateSourceRejectsUnknownType(t *testing.T) {
	rt, _ := startedRuntime(t)
	_, err := rt.CreateSource(context.Background(), studio.SourceCreate{ID: "cam", Type: "nonexistent_input"})
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if err.Error() != "failed to create source 'nonexistent_input'" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWindowCaptureFallsBackToAlias(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()
	_, err := rt.CreateSource(ctx, studio.SourceCreate{
		ID: "win", Type: "window_capture", Params: map[string]string{"window": "0x1\r\nTerminal\r\nxterm"},
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	sources, _ := rt.ListSources(ctx)
	if len(sources) != 1 || sources[0].SourceType != "xcomposite_input" {
		t.Fatalf("expected xcomposite_input, got %+v", sources)
	}
}

func TestSourceSettingsRenderColorsAsHex(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	_, err := rt.CreateSource(ctx, studio.SourceCreate{
		ID:     "panel",
		Type:   "color_source",
		Params: map[string]string{"color": "#FF8000", "width": "200", "height": "100"},
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	settings, err := rt.GetSourceSettings(ctx, "panel")
	if err != nil {
		t.Fatalf("GetSourceSettings: %v", err)
	}
	if settings.Params["color"] != "#ff8000" {
		t.Fatalf("expected hex color, got %q", settings.Params["color"])
	}
	if settings.Params["width"] != "200" || settings.Params["height"] != "100" {
		t.Fatalf("unexpected size params %v", settings.Params)
	}
	if settings.SourceType != "color_source" || len(settings.Properties) == 0 {
		t.Fatalf("unexpected settings %+v", settings)
	}

	// Updating with the returned values keeps the color stable.
	_, err = rt.UpdateSource(ctx, studio.SourceUpdate{ID: "panel", Params: map[string]string{"color": settings.Params["color"]}})
	if err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	again, _ := rt.GetSourceSettings(ctx, "panel")
	if again.Params["color"] != "#ff8000" {
		t.Fatalf("color drifted to %q", again.Params["color"])
	}
}

func TestSetSourceVisibleAndMove(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: id, Type: "color_source"}); err != nil {
			t.Fatalf("CreateSource %s: %v", id, err)
		}
	}
	if err := rt.SetSourceVisible(ctx, "b", false); err != nil {
		t.Fatalf("SetSourceVisible: %v", err)
	}
	if err := rt.MoveSource(ctx, "a", "top"); err != nil {
		t.Fatalf("MoveSource: %v", err)
	}
	if err := rt.MoveSource(ctx, "a", "sideways"); err == nil || err.Error() != "invalid direction" {
		t.Fatalf("expected invalid direction, got %v", err)
	}
	if err := rt.ReorderSource(ctx, "c", 0); err != nil {
		t.Fatalf("ReorderSource: %v", err)
	}
	sources, _ := rt.ListSources(ctx)
	var ids []string
	for _, s := range sources {
		ids = append(ids, s.ID)
		if s.ID == "b" && s.Visible {
			t.Fatalf("b should be hidden")
		}
	}
	if got := strings.Join(ids, ","); got != "c,b,a" {
		t.Fatalf("unexpected item order %s", got)
	}
}

func TestListSourceTypesSortedByLabel(t *testing.T) {
	rt, _ := startedRuntime(t)
	types, err := rt.ListSourceTypes(context.Background())
	if err != nil {
		t.Fatalf("ListSourceTypes: %v", err)
	}
	if len(types) == 0 {
		t.Fatalf("expected source types")
	}
	for i := 1; i < len(types); i++ {
		prev, cur := strings.ToLower(types[i-1].Label), strings.ToLower(types[i].Label)
		if prev > cur {
			t.Fatalf("types not sorted by label: %q before %q", types[i-1].Label, types[i].Label)
		}
	}
}

func TestRecordingTwiceKeepsOneOutput(t *testing.T) {
	rt, eng := startedRuntime(t)
	ctx := context.Background()
	dir := t.TempDir() + "/"

	msg, err := rt.StartRecording(ctx, dir)
	if err != nil || !strings.HasPrefix(msg, "Recording started: ") {
		t.Fatalf("StartRecording: %q %v", msg, err)
	}
	msg, err = rt.StartRecording(ctx, dir)
	if err != nil || msg != "Recording already active" {
		t.Fatalf("expected already active, got %q %v", msg, err)
	}
	outputs := eng.Outputs()
	if len(outputs) != 1 || outputs[0].Type != "ffmpeg_muxer" || !outputs[0].Active {
		t.Fatalf("expected one active muxer, got %+v", outputs)
	}
	if len(eng.Encoders()) != 2 {
		t.Fatalf("expected a video and audio encoder, got %+v", eng.Encoders())
	}

	msg, err = rt.StopRecording(ctx)
	if err != nil || !strings.HasPrefix(msg, "Recording stopped") {
		t.Fatalf("StopRecording: %q %v", msg, err)
	}
	if len(eng.Outputs()) != 0 || len(eng.Encoders()) != 0 {
		t.Fatalf("recording objects leaked: %v", eng.Live())
	}
	if msg, _ := rt.StopRecording(ctx); msg != "Recording not active" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRecordingFallsBackToGenericMuxer(t *testing.T) {
	rt, eng := startedRuntime(t)
	eng.FailStart("ffmpeg_muxer", "muxer unavailable")

	msg, err := rt.StartRecording(context.Background(), t.TempDir()+"/")
	if err != nil || !strings.HasPrefix(msg, "Recording started: ") {
		t.Fatalf("StartRecording: %q %v", msg, err)
	}
	outputs := eng.Outputs()
	if len(outputs) != 1 || outputs[0].Type != "ffmpeg_output" {
		t.Fatalf("expected the generic output, got %+v", outputs)
	}
	if got := outputs[0].Settings.GetString("video_encoder"); got != "libx264" {
		t.Fatalf("expected libx264 settings, got %q", got)
	}
	if len(eng.Encoders()) != 0 {
		t.Fatalf("failed muxer encoders leaked: %+v", eng.Encoders())
	}
}

func TestRecordingReportsSecondFailure(t *testing.T) {
	rt, eng := startedRuntime(t)
	eng.FailStart("ffmpeg_muxer", "muxer unavailable")
	eng.FailStart("ffmpeg_output", "disk full")
	before := eng.LiveCount()

	_, err := rt.StartRecording(context.Background(), t.TempDir()+"/")
	if err == nil || err.Error() != "recording start failed: disk full" {
		t.Fatalf("expected second failure, got %v", err)
	}
	if eng.LiveCount() != before {
		t.Fatalf("failed attempts leaked objects: %v", eng.Live())
	}
}

func TestStreamingLifecycle(t *testing.T) {
	rt, eng := startedRuntime(t)
	ctx := context.Background()

	if _, err := rt.StartStreaming(ctx, " "); err == nil || err.Error() != "stream URL required" {
		t.Fatalf("expected URL required, got %v", err)
	}
	msg, err := rt.StartStreaming(ctx, "rtmp://live.example.com/app/secret")
	if err != nil || msg != "Streaming started" {
		t.Fatalf("StartStreaming: %q %v", msg, err)
	}
	outputs := eng.Outputs()
	if len(outputs) != 1 || outputs[0].Type != "rtmp_output" || outputs[0].Service == 0 {
		t.Fatalf("expected a service-bound rtmp output, got %+v", outputs)
	}
	if msg, _ := rt.StartStreaming(ctx, "rtmp://other/app/key"); msg != "Streaming already active" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg, _ := rt.StopStreaming(ctx); msg != "Streaming stopped" {
		t.Fatalf("unexpected message %q", msg)
	}
	if live := eng.Live(); live["output"] != 0 || live["service"] != 0 || live["encoder"] != 0 {
		t.Fatalf("stream objects leaked: %v", live)
	}
}

func TestStreamingFailureReleasesEverything(t *testing.T) {
	rt, eng := startedRuntime(t)
	eng.FailStart("rtmp_output", "connection refused")
	before := eng.LiveCount()

	_, err := rt.StartStreaming(context.Background(), "rtmp://live.example.com/app/secret")
	if err == nil || err.Error() != "stream start failed: connection refused" {
		t.Fatalf("expected start failure, got %v", err)
	}
	if eng.LiveCount() != before {
		t.Fatalf("failed stream leaked objects: %v", eng.Live())
	}
	status, _ := rt.Status(context.Background())
	if status.Streaming {
		t.Fatalf("status should not report streaming")
	}
}

func TestStreamingFallsBackToDirectOutput(t *testing.T) {
	rt, eng := startedRuntime(t)
	eng.FailCreate("rtmp_custom")

	if _, err := rt.StartStreaming(context.Background(), "rtmp://live.example.com/app/secret"); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	outputs := eng.Outputs()
	if len(outputs) != 1 || outputs[0].Type != "ffmpeg_output" {
		t.Fatalf("expected direct output, got %+v", outputs)
	}
	if got := outputs[0].Settings.GetString("format_name"); got != "flv" {
		t.Fatalf("expected flv container, got %q", got)
	}
}

func TestEncoderPreferenceSelectsHardware(t *testing.T) {
	rt, eng := startedRuntime(t, memengine.WithHardwareEncoders("h264_vaapi"))
	ctx := context.Background()

	if _, err := rt.StartRecording(ctx, t.TempDir()+"/"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !hasEncoder(eng, "h264_vaapi") {
		t.Fatalf("expected hardware encoder, got %+v", eng.Encoders())
	}
	if _, err := rt.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}

	msg, err := rt.SetEncoderPreference(ctx, "X264")
	if err != nil || msg != "Encoder preference set to x264" {
		t.Fatalf("SetEncoderPreference: %q %v", msg, err)
	}
	if _, err := rt.StartRecording(ctx, t.TempDir()+"/"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !hasEncoder(eng, "obs_x264") || hasEncoder(eng, "h264_vaapi") {
		t.Fatalf("expected software encoder, got %+v", eng.Encoders())
	}
}

func hasEncoder(eng *memengine.Engine, typ string) bool {
	for _, enc := range eng.Encoders() {
		if enc.Type == typ {
			return true
		}
	}
	return false
}

func decodeDataURL(t *testing.T, url string) (int, int) {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("expected PNG data URL, got %.40q", url)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestScreenshotScene(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	url, err := rt.Screenshot(ctx, studio.ScreenshotRequest{})
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if w, h := decodeDataURL(t, url); w != 1280 || h != 720 {
		t.Fatalf("expected canvas size, got %dx%d", w, h)
	}

	url, err = rt.Screenshot(ctx, studio.ScreenshotRequest{Width: 320, Height: 320})
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if w, h := decodeDataURL(t, url); w != 320 || h != 180 {
		t.Fatalf("expected aspect-preserving thumbnail, got %dx%d", w, h)
	}
}

func TestScreenshotSource(t *testing.T) {
	rt, eng := startedRuntime(t)
	ctx := context.Background()

	if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: "box", Type: "color_source"}); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	url, err := rt.Screenshot(ctx, studio.ScreenshotRequest{Source: "box", Width: 10, Height: 10000})
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if w, h := decodeDataURL(t, url); w != 160 || h != 2160 {
		t.Fatalf("expected clamped size, got %dx%d", w, h)
	}
	if _, err := rt.Screenshot(ctx, studio.ScreenshotRequest{Source: "ghost"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if live := eng.Live(); live["view"] != 1 || live["target"] != 1 {
		t.Fatalf("expected one reusable preview view and target, got %v", live)
	}
}

func TestScreenshotWithoutRenderTarget(t *testing.T) {
	rt, eng := startedRuntime(t)
	eng.DisableRenderTargets(true)
	_, err := rt.Screenshot(context.Background(), studio.ScreenshotRequest{})
	if err == nil || err.Error() != "failed to create render target" {
		t.Fatalf("expected render target failure, got %v", err)
	}
}

func TestShutdownReleasesEverything(t *testing.T) {
	eng := memengine.New()
	rt := studio.New(eng)
	ctx := context.Background()
	if _, err := rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720", DefaultTemplate: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := rt.CreateScene(ctx, "Extra"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: "box", Type: "color_source"}); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if _, err := rt.SetSourceFilters(ctx, "box", []studio.FilterSpec{{Kind: "color_correction", Enabled: true}}); err != nil {
		t.Fatalf("SetSourceFilters: %v", err)
	}
	if _, err := rt.StartRecording(ctx, t.TempDir()+"/"); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := rt.StartStreaming(ctx, "rtmp://live.example.com/app/key"); err != nil {
		t.Fatalf("StartStreaming: %v", err)
	}
	if _, err := rt.Screenshot(ctx, studio.ScreenshotRequest{}); err != nil {
		t.Fatalf("Screenshot: %v", err)
	}

	msg, err := rt.Shutdown(ctx)
	if err != nil || msg != "engine shut down" {
		t.Fatalf("Shutdown: %q %v", msg, err)
	}
	if n := eng.LiveCount(); n != 0 {
		t.Fatalf("expected no live engine objects, got %v", eng.Live())
	}

	// The runtime can start again.
	if _, err := rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720"}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := strings.Join(sceneNames(t, rt), ","); got != "revo_scene" {
		t.Fatalf("unexpected scenes after restart %s", got)
	}
}

func TestTemplateItemsAddressableByReservedIDs(t *testing.T) {
	eng := memengine.New()
	rt := studio.New(eng)
	ctx := context.Background()
	if _, err := rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720", DefaultTemplate: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sources, _ := rt.ListSources(ctx)
	ids := make(map[string]studio.SourceInfo)
	for _, s := range sources {
		ids[s.ID] = s
	}
	if _, ok := ids[studio.AccentID]; !ok {
		t.Fatalf("expected accent item, got %+v", sources)
	}
	if title, ok := ids[studio.TitleID]; !ok || title.Params["text"] != "RevoStream" {
		t.Fatalf("expected title item, got %+v", sources)
	}
	if _, err := rt.RemoveSource(ctx, studio.AccentID); err != nil {
		t.Fatalf("RemoveSource accent: %v", err)
	}
	_, err := rt.RemoveSource(ctx, studio.AccentID)
	if err == nil || err.Error() != "source not available" {
		t.Fatalf("expected empty slot, got %v", err)
	}
}

func TestFiltersReplaceAndPrune(t *testing.T) {
	rt, _ := startedRuntime(t)
	ctx := context.Background()

	if _, err := rt.CreateSource(ctx, studio.SourceCreate{ID: "cam", Type: "color_source"}); err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	_, err := rt.SetSourceFilters(ctx, "cam", []studio.FilterSpec{
		{Name: "Grade", Kind: "color_correction", Enabled: true, Params: map[string]string{"gamma": "0.5"}},
		{Name: "Key", Kind: "chroma_key", Enabled: false},
	})
	if err != nil {
		t.Fatalf("SetSourceFilters: %v", err)
	}
	filters, err := rt.ListFilters(ctx, "cam")
	if err != nil {
		t.Fatalf("ListFilters: %v", err)
	}
	if len(filters) != 2 || filters[0].Name != "Grade" || filters[0].Kind != "color_correction" || filters[1].Enabled {
		t.Fatalf("unexpected filters %+v", filters)
	}
	if filters[0].Params["gamma"] != "0.5" {
		t.Fatalf("unexpected filter params %v", filters[0].Params)
	}

	if _, err := rt.SetSourceFilters(ctx, "cam", []studio.FilterSpec{{Name: "Key", Kind: "chroma_key", Enabled: true}}); err != nil {
		t.Fatalf("SetSourceFilters: %v", err)
	}
	filters, _ = rt.ListFilters(ctx, "cam")
	if len(filters) != 1 || filters[0].Name != "Key" || !filters[0].Enabled {
		t.Fatalf("expected pruned chain, got %+v", filters)
	}
}

type panicEngine struct {
	*memengine.Engine
}

func (panicEngine) SceneCreate(string) engine.SceneID {
	panic("scene table corrupted")
}

func TestPanicPoisonsRuntime(t *testing.T) {
	eng := panicEngine{memengine.New()}
	rt := studio.New(eng)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the panic to propagate")
			}
		}()
		_, _ = rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720"})
	}()

	if !rt.Poisoned() {
		t.Fatalf("runtime should be poisoned")
	}
	_, err := rt.ListScenes(ctx)
	if !errors.Is(err, studio.ErrPoisoned) || !errors.Is(err, services.ErrPoisoned) {
		t.Fatalf("expected poisoned error, got %v", err)
	}
}

type recordingJournal struct {
	actions []string
}

func (j *recordingJournal) Record(_ context.Context, action string, _ map[string]any) {
	j.actions = append(j.actions, action)
}

func TestJournalReceivesMutations(t *testing.T) {
	j := &recordingJournal{}
	rt := studio.New(memengine.New(), studio.WithJournal(j))
	ctx := context.Background()
	if _, err := rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := rt.CreateScene(ctx, "Two"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if _, err := rt.RemoveScene(ctx, "Two"); err != nil {
		t.Fatalf("RemoveScene: %v", err)
	}
	got := strings.Join(j.actions, ",")
	if !strings.HasPrefix(got, "start,") || !strings.Contains(got, "remove_scene") {
		t.Fatalf("unexpected journal actions %s", got)
	}
}

// blockingJournal holds Record calls for one action until release is closed.
type blockingJournal struct {
	action  string
	entered chan struct{}
	release chan struct{}
}

func (j *blockingJournal) Record(_ context.Context, action string, _ map[string]any) {
	if action != j.action {
		return
	}
	j.entered <- struct{}{}
	<-j.release
}

func TestJournalDeliveryDoesNotHoldRuntimeLock(t *testing.T) {
	j := &blockingJournal{action: "create_scene", entered: make(chan struct{}, 1), release: make(chan struct{})}
	rt := studio.New(memengine.New(), studio.WithJournal(j))
	ctx := context.Background()
	if _, err := rt.Start(ctx, studio.StartOptions{SceneResolution: "1280x720"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	created := make(chan error, 1)
	go func() {
		_, err := rt.CreateScene(ctx, "Two")
		created <- err
	}()
	<-j.entered

	listed := make(chan error, 1)
	go func() {
		_, err := rt.ListScenes(ctx)
		listed <- err
	}()
	select {
	case err := <-listed:
		if err != nil {
			t.Fatalf("ListScenes: %v", err)
		}
	case <-time.After(2 * time.Second):
		close(j.release)
		t.Fatal("ListScenes blocked while the journal was delivering")
	}

	close(j.release)
	if err := <-created; err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
}
