package memengine

import (
	"testing"

	"revostream/internal/engine"
)

func startedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := New(opts...)
	if err := e.Startup(t.TempDir()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if !e.ResetVideo(engine.VideoInfo{FPSNum: 30, FPSDen: 1, BaseWidth: 1280, BaseHeight: 720, OutputWidth: 1280, OutputHeight: 720}) {
		t.Fatalf("ResetVideo failed")
	}
	return e
}

func TestSourceRefcountThroughSceneItems(t *testing.T) {
	e := startedEngine(t)
	scene := engine.CreateScene(e, "Main")
	src := engine.CreateSource(e, "color_source_v2", "Box", nil)
	if scene.IsZero() || src.IsZero() {
		t.Fatalf("expected live handles")
	}
	item := engine.AddToScene(e, scene.ID(), src.ID())
	src.Release()

	if got := e.SourceName(e.ItemSource(item.ID()).ID()); got != "Box" {
		t.Fatalf("item should keep source alive, got name %q", got)
	}
	item.Release()
	if e.SourceName(engine.SourceID(src.ID())) != "" {
		t.Fatalf("handle should read zero after release")
	}
	scene.Release()
	if n := e.LiveCount(); n != 0 {
		t.Fatalf("expected no live objects, got %v", e.Live())
	}
}

func TestSourceCreateUnknownTypeReturnsNull(t *testing.T) {
	e := startedEngine(t)
	if id := e.SourceCreate("window_capture", "Window", nil); id != 0 {
		t.Fatalf("expected null for unregistered type")
	}
	e.FailCreate("image_source")
	if id := e.SourceCreate("image_source", "Logo", nil); id != 0 {
		t.Fatalf("expected null for failing type")
	}
}

func TestSettingsDefaultsAreNotUserValues(t *testing.T) {
	e := startedEngine(t)
	settings := engine.NewData()
	settings.SetString("text", "Hello")
	id := e.SourceCreate("text_ft2_source_v2", "Title", settings)
	got := e.SourceSettings(id)
	if got.HasUserValue("font") {
		t.Fatalf("font should come from defaults")
	}
	if got.GetObject("font").GetInt("size") != 32 {
		t.Fatalf("expected default font size 32")
	}
	w, h := e.SourceSize(id)
	if w != 80 || h != 32 {
		t.Fatalf("expected 80x32 text box, got %dx%d", w, h)
	}
	e.SourceRelease(id)
}

func TestItemOrderMovements(t *testing.T) {
	e := startedEngine(t)
	scene := e.SceneCreate("Main")
	var items []engine.ItemID
	for _, name := range []string{"a", "b", "c"} {
		src := e.SourceCreate("color_source_v2", name, nil)
		items = append(items, e.SceneAdd(scene, src))
		e.SourceRelease(src)
	}

	e.ItemSetOrder(items[0], engine.OrderMoveTop)
	assertOrder(t, e, scene, items[1], items[2], items[0])
	e.ItemSetOrder(items[0], engine.OrderMoveDown)
	assertOrder(t, e, scene, items[1], items[0], items[2])
	e.ItemSetOrder(items[2], engine.OrderMoveBottom)
	assertOrder(t, e, scene, items[2], items[1], items[0])

	if e.SceneReorderItems(scene, []engine.ItemID{items[0], items[1]}) {
		t.Fatalf("partial order must be rejected")
	}
	if !e.SceneReorderItems(scene, []engine.ItemID{items[0], items[1], items[2]}) {
		t.Fatalf("full permutation should be accepted")
	}
	assertOrder(t, e, scene, items[0], items[1], items[2])
}

func assertOrder(t *testing.T, e *Engine, scene engine.SceneID, want ...engine.ItemID) {
	t.Helper()
	got := e.SceneItems(scene)
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if engine.ItemID(got[i]) != want[i] {
			t.Fatalf("position %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestFiltersHoldReferences(t *testing.T) {
	e := startedEngine(t)
	src := e.SourceCreate("image_source", "Logo", nil)
	filter := e.SourceCreate("gain_filter", "Gain", nil)
	e.SourceFilterAdd(src, filter)
	e.SourceRelease(filter)

	if ref := e.SourceFilterByName(src, "Gain"); ref == 0 {
		t.Fatalf("expected filter lookup by name")
	}
	e.SourceRelease(src)
	if n := e.LiveCount(); n != 0 {
		t.Fatalf("filters should die with their parent, live=%v", e.Live())
	}
}

func TestOutputStartRequiresEncodersAndTarget(t *testing.T) {
	e := startedEngine(t)
	settings := engine.NewData()
	settings.SetString("path", "/tmp/out.mp4")
	out := e.OutputCreate("ffmpeg_muxer", "rec", settings)
	if e.OutputStart(out) {
		t.Fatalf("encoded output without encoders must not start")
	}
	if e.OutputLastError(out) != "no video encoder" {
		t.Fatalf("unexpected last error %q", e.OutputLastError(out))
	}
	venc := e.VideoEncoderCreate("obs_x264", "v", nil)
	aenc := e.AudioEncoderCreate("ffmpeg_aac", "a", nil, 0)
	e.OutputSetVideoEncoder(out, venc)
	e.OutputSetAudioEncoder(out, aenc, 0)
	if !e.OutputStart(out) || !e.OutputActive(out) {
		t.Fatalf("expected output to start")
	}
	e.OutputStop(out)
	e.OutputRelease(out)
	e.EncoderRelease(venc)
	e.EncoderRelease(aenc)
	if n := e.LiveCount(); n != 0 {
		t.Fatalf("leaked objects: %v", e.Live())
	}
}

func TestFailStartReportsLastError(t *testing.T) {
	e := startedEngine(t)
	e.FailStart("ffmpeg_output", "connection refused")
	settings := engine.NewData()
	settings.SetString("url", "rtmp://example/live")
	out := e.OutputCreate("ffmpeg_output", "stream", settings)
	if e.OutputStart(out) {
		t.Fatalf("expected injected failure")
	}
	if got := e.OutputLastError(out); got != "connection refused" {
		t.Fatalf("unexpected last error %q", got)
	}
}

func TestServiceRequiresServer(t *testing.T) {
	e := startedEngine(t)
	if id := e.ServiceCreate("rtmp_custom", "svc", engine.NewData()); id != 0 {
		t.Fatalf("service without server must fail")
	}
	settings := engine.NewData()
	settings.SetString("server", "rtmp://example/live")
	if id := e.ServiceCreate("rtmp_custom", "svc", settings); id == 0 {
		t.Fatalf("expected service")
	}
}

func TestRenderViewDrawsVisibleColorSources(t *testing.T) {
	e := startedEngine(t)
	scene := e.SceneCreate("Main")
	settings := engine.NewData()
	settings.SetInt("color", 0xFF0000FF) // red
	settings.SetInt("width", 640)
	settings.SetInt("height", 360)
	src := e.SourceCreate("color_source_v2", "Red", settings)
	item := e.SceneAdd(scene, src)
	e.SourceRelease(src)

	view := e.ViewCreate()
	target := e.RenderTargetCreate()
	e.ViewSetSource(view, 0, engine.SourceID(e.SceneSource(scene)))

	frame, ok := e.RenderView(view, target, 128, 72)
	if !ok || frame.Format != engine.FormatBGRA {
		t.Fatalf("expected BGRA frame")
	}
	if px := frame.Pix[0:4]; px[0] != 0 || px[1] != 0 || px[2] != 0xFF || px[3] != 0xFF {
		t.Fatalf("expected red top-left pixel, got %v", px)
	}
	last := frame.Pix[len(frame.Pix)-4:]
	if last[2] != 0 {
		t.Fatalf("expected bottom-right outside the box, got %v", last)
	}

	e.ItemSetVisible(item, false)
	frame, _ = e.RenderView(view, target, 128, 72)
	if frame.Pix[2] != 0 {
		t.Fatalf("hidden item must not render")
	}
}

func TestSaveSourcesDescribesScenes(t *testing.T) {
	e := startedEngine(t)
	scene := e.SceneCreate("Main")
	src := e.SourceCreate("image_source", "Logo", nil)
	item := e.SceneAdd(scene, src)
	e.SourceRelease(src)
	e.ItemSetTransform(item, engine.Transform{Pos: engine.Vec2{X: 10, Y: 20}, Scale: engine.Vec2{X: 2, Y: 2}})

	saved := e.SaveSources()
	if len(saved) != 2 {
		t.Fatalf("expected scene and input, got %d", len(saved))
	}
	if saved[0].GetString("id") != "scene" || saved[0].GetString("name") != "Main" {
		t.Fatalf("expected scene first, got %s", saved[0].GetString("id"))
	}
	items := saved[0].GetObject("settings").GetArray("items")
	if len(items) != 1 || items[0].GetString("name") != "Logo" {
		t.Fatalf("unexpected scene items %+v", items)
	}
	if items[0].GetObject("pos").GetDouble("x") != 10 || items[0].GetObject("scale").GetDouble("y") != 2 {
		t.Fatalf("transform not saved")
	}
}

func TestShutdownKeepsLeakedObjectsVisible(t *testing.T) {
	e := startedEngine(t)
	e.SceneCreate("Leaked")
	e.Shutdown()
	if e.Live()["scene"] != 1 {
		t.Fatalf("expected leaked scene to be reported, got %v", e.Live())
	}
}
