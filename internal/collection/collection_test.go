package collection_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"revostream/internal/collection"
	"revostream/internal/engine/memengine"
	"revostream/internal/services"
	"revostream/internal/studio"
)

func newService(t *testing.T) (*collection.Service, *studio.Runtime) {
	t.Helper()
	rt := studio.New(memengine.New())
	if _, err := rt.Start(context.Background(), studio.StartOptions{
		RootDir:         t.TempDir(),
		SceneResolution: "1280x720",
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return collection.New(rt), rt
}

// populate builds revo_scene (empty) and Intro with an image and a hidden,
// resized color box.
func populate(t *testing.T, rt *studio.Runtime) {
	t.Helper()
	ctx := context.Background()
	if _, err := rt.CreateScene(ctx, "Intro"); err != nil {
		t.Fatalf("CreateScene: %v", err)
	}
	if _, err := rt.CreateSource(ctx, studio.SourceCreate{
		ID:   "logo",
		Name: "Logo",
		Type: "image_source",
		Params: map[string]string{
			"file": "/tmp/x.png", "pos_x": "10", "pos_y": "20", "scale_x": "2", "scale_y": "1.5",
		},
	}); err != nil {
		t.Fatalf("CreateSource logo: %v", err)
	}
	if _, err := rt.CreateSource(ctx, studio.SourceCreate{
		ID:   "box",
		Name: "Box",
		Type: "color_source_v2",
		Params: map[string]string{
			"color": "#336699", "width": "200", "height": "100",
			"pos_x": "5", "pos_y": "6", "item_width": "100", "item_height": "50",
		},
	}); err != nil {
		t.Fatalf("CreateSource box: %v", err)
	}
	if err := rt.SetSourceVisible(ctx, "box", false); err != nil {
		t.Fatalf("SetSourceVisible: %v", err)
	}
}

func decodeDocument(t *testing.T, raw string) collection.Document {
	t.Helper()
	var doc collection.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode export: %v\n%s", err, raw)
	}
	return doc
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func assertSameLayout(t *testing.T, want, got collection.Document) {
	t.Helper()
	if len(want.Scenes) != len(got.Scenes) {
		t.Fatalf("scene count: want %d, got %d", len(want.Scenes), len(got.Scenes))
	}
	for i, ws := range want.Scenes {
		gs := got.Scenes[i]
		if ws.Name != gs.Name {
			t.Fatalf("scene %d: want %q, got %q", i, ws.Name, gs.Name)
		}
		if len(ws.Sources) != len(gs.Sources) {
			t.Fatalf("scene %s item count: want %d, got %d", ws.Name, len(ws.Sources), len(gs.Sources))
		}
		for j, wsrc := range ws.Sources {
			gsrc := gs.Sources[j]
			if wsrc.Name != gsrc.Name || wsrc.ID != gsrc.ID {
				t.Fatalf("item %s/%d: want %s(%s), got %s(%s)", ws.Name, j, wsrc.Name, wsrc.ID, gsrc.Name, gsrc.ID)
			}
			if wsrc.Visible != gsrc.Visible {
				t.Fatalf("item %s visibility: want %v, got %v", wsrc.Name, wsrc.Visible, gsrc.Visible)
			}
			wt, gt := wsrc.Transform, gsrc.Transform
			if !closeEnough(wt.Pos.X, gt.Pos.X) || !closeEnough(wt.Pos.Y, gt.Pos.Y) {
				t.Fatalf("item %s pos: want %+v, got %+v", wsrc.Name, wt.Pos, gt.Pos)
			}
			if !closeEnough(wt.Scale.X, gt.Scale.X) || !closeEnough(wt.Scale.Y, gt.Scale.Y) {
				t.Fatalf("item %s scale: want %+v, got %+v", wsrc.Name, wt.Scale, gt.Scale)
			}
			if (wt.Size == nil) != (gt.Size == nil) {
				t.Fatalf("item %s size presence: want %v, got %v", wsrc.Name, wt.Size, gt.Size)
			}
			if wt.Size != nil && (!closeEnough(wt.Size.Width, gt.Size.Width) || !closeEnough(wt.Size.Height, gt.Size.Height)) {
				t.Fatalf("item %s size: want %+v, got %+v", wsrc.Name, *wt.Size, *gt.Size)
			}
		}
	}
}

func TestExportDescribesScenes(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)

	raw, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	doc := decodeDocument(t, raw)
	if doc.Name != collection.DefaultName {
		t.Fatalf("unexpected collection name %q", doc.Name)
	}
	if len(doc.Scenes) != 2 || doc.Scenes[0].Name != "revo_scene" || doc.Scenes[1].Name != "Intro" {
		t.Fatalf("unexpected scenes %+v", doc.Scenes)
	}
	intro := doc.Scenes[1]
	if len(intro.Sources) != 2 {
		t.Fatalf("expected two items, got %+v", intro.Sources)
	}
	logo, box := intro.Sources[0], intro.Sources[1]
	if logo.ID != "image_source" || logo.Settings["file"] != "/tmp/x.png" || !logo.Visible {
		t.Fatalf("unexpected logo %+v", logo)
	}
	if logo.Transform.Size != nil {
		t.Fatalf("image without intrinsic size should export null size, got %+v", logo.Transform.Size)
	}
	if box.Visible {
		t.Fatalf("expected hidden box")
	}
	if box.Transform.Size == nil || !closeEnough(box.Transform.Size.Width, 100) || !closeEnough(box.Transform.Size.Height, 50) {
		t.Fatalf("unexpected box size %+v", box.Transform.Size)
	}
	if !closeEnough(box.Transform.Scale.X, 0.5) {
		t.Fatalf("unexpected box scale %+v", box.Transform.Scale)
	}
	if !strings.Contains(raw, "\n  \"scenes\"") {
		t.Fatalf("expected indented output, got %s", raw)
	}
}

func TestExportIsReproducible(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)
	first, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	second, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if first != second {
		t.Fatalf("export changed without graph changes:\n%s\n---\n%s", first, second)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)
	ctx := context.Background()

	raw, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	res, err := svc.Import(ctx, raw)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Message != "scene collection imported" || res.Created != 2 || res.Skipped != 0 || res.Scenes != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	again, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export after import: %v", err)
	}
	assertSameLayout(t, decodeDocument(t, raw), decodeDocument(t, again))

	current, err := rt.CurrentScene(ctx)
	if err != nil || current != "revo_scene" {
		t.Fatalf("expected first scene current, got %q %v", current, err)
	}
}

type panickingJournal struct{}

func (panickingJournal) Record(context.Context, string, map[string]any) {
	panic("journal closed")
}

func TestImportSurvivesPanickingJournal(t *testing.T) {
	_, rt := newService(t)
	populate(t, rt)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := collection.New(rt, collection.WithLogger(logger), collection.WithJournal(panickingJournal{}))
	ctx := context.Background()

	raw, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	res, err := svc.Import(ctx, raw)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	out := logs.String()
	if !strings.Contains(out, "journal record dropped") || !strings.Contains(out, "action=import_collection") {
		t.Fatalf("expected dropped journal record to be logged, got:\n%s", out)
	}
}

func TestImportNativeDocument(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)
	ctx := context.Background()

	before, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	native, err := svc.ExportNative(ctx)
	if err != nil {
		t.Fatalf("ExportNative: %v", err)
	}
	var shape map[string]any
	if err := json.Unmarshal([]byte(native), &shape); err != nil {
		t.Fatalf("decode native: %v", err)
	}
	for _, key := range []string{"sources", "scene_order", "current_scene", "current_program_scene", "version"} {
		if _, ok := shape[key]; !ok {
			t.Fatalf("native export missing %q", key)
		}
	}
	if shape["current_scene"] != "Intro" {
		t.Fatalf("unexpected current scene %v", shape["current_scene"])
	}

	res, err := svc.Import(ctx, native)
	if err != nil {
		t.Fatalf("Import native: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	after, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	assertSameLayout(t, decodeDocument(t, before), decodeDocument(t, after))
}

func TestImportRejectsDocumentsWithoutScenes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, `{"name":"x"}`)
	if !errors.Is(err, services.ErrValidation) || err.Error() != "missing scenes array" {
		t.Fatalf("expected missing scenes error, got %v", err)
	}
	_, err = svc.Import(ctx, `{not json`)
	if err == nil || !strings.HasPrefix(err.Error(), "invalid JSON: ") {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestImportFailsWhenNothingCreated(t *testing.T) {
	svc, _ := newService(t)
	doc := `{"scenes":[{"name":"Broken","sources":[{"name":"a","id":"no_such_source"}]}]}`

	res, err := svc.Import(context.Background(), doc)
	if err == nil || err.Error() != "no sources imported (unsupported types?)" {
		t.Fatalf("expected zero-import error, got %v", err)
	}
	if res.Skipped != 1 || res.Created != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestImportReportsSkippedSources(t *testing.T) {
	svc, rt := newService(t)
	doc := `{"scenes":[{"name":"Main","sources":[
		{"name":"good","id":"color_source_v2","settings":{"width":"64","height":"32"}},
		{"name":"bad","id":"no_such_source"}
	]}]}`

	res, err := svc.Import(context.Background(), doc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Message != "scene collection imported with 1 skipped sources" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if len(res.Skips) != 1 || res.Skips[0].Source != "bad" || res.Skips[0].Scene != "Main" {
		t.Fatalf("unexpected skips %+v", res.Skips)
	}
	sources, err := rt.ListSources(context.Background())
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 1 || sources[0].ID != "good" {
		t.Fatalf("unexpected sources %+v", sources)
	}
}

func TestImportBareArrayUsesDefaults(t *testing.T) {
	svc, rt := newService(t)
	ctx := context.Background()

	if _, err := svc.Import(ctx, `[{"name":"A","sources":[{"source_name":"plain"}]}]`); err != nil {
		t.Fatalf("Import: %v", err)
	}
	sources, err := rt.ListSources(ctx)
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(sources) != 1 || sources[0].ID != "plain" || sources[0].SourceType != "color_source_v2" || !sources[0].Visible {
		t.Fatalf("unexpected sources %+v", sources)
	}
	scenes, err := rt.ListScenes(ctx)
	if err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	if len(scenes) != 1 || scenes[0].Name != "A" || !scenes[0].Active {
		t.Fatalf("unexpected scenes %+v", scenes)
	}
}

func TestImportAppliesFilters(t *testing.T) {
	svc, rt := newService(t)
	ctx := context.Background()
	doc := `{"scenes":[{"name":"Main","sources":[{"name":"cam","id":"color_source_v2",
		"filters":[
			{"name":"Grade","kind":"color_correction","enabled":false,"params":{"gamma":0.5}},
			{"name":"Mystery","kind":"not_a_kind"}
		]}]}]}`

	if _, err := svc.Import(ctx, doc); err != nil {
		t.Fatalf("Import: %v", err)
	}
	filters, err := rt.ListFilters(ctx, "cam")
	if err != nil {
		t.Fatalf("ListFilters: %v", err)
	}
	if len(filters) != 1 || filters[0].Name != "Grade" || filters[0].Kind != "color_correction" || filters[0].Enabled {
		t.Fatalf("unexpected filters %+v", filters)
	}

	raw, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	exported := decodeDocument(t, raw)
	got := exported.Scenes[0].Sources[0].Filters
	if len(got) != 1 || got[0].Kind != "color_correction" {
		t.Fatalf("filters not exported: %+v", got)
	}
}

func TestExportToFileAddsUIPayload(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "scenes.json")

	msg, err := svc.ExportToFile(ctx, path, `{"theme":"dark","<b>":1}`, false)
	if err != nil {
		t.Fatalf("ExportToFile: %v", err)
	}
	if msg != "Scenes exported to "+path {
		t.Fatalf("unexpected message %q", msg)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), `"<b>"`) {
		t.Fatalf("expected unescaped keys, got %s", raw)
	}
	var written map[string]any
	if err := json.Unmarshal(raw, &written); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	ui, ok := written["revo_ui"].(map[string]any)
	if !ok || ui["theme"] != "dark" {
		t.Fatalf("unexpected revo_ui %v", written["revo_ui"])
	}
	if _, ok := written["scenes"]; !ok {
		t.Fatalf("scenes missing from file")
	}

	msg, err = svc.ExportToFile(ctx, path, "", true)
	if err != nil || msg != "OBS scenes exported to "+path {
		t.Fatalf("unexpected native export %q %v", msg, err)
	}
}

func TestExportToFileValidatesInput(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.ExportToFile(ctx, "  ", "", false); err == nil || err.Error() != "Output path required" {
		t.Fatalf("expected path required, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.json")
	_, err := svc.ExportToFile(ctx, path, "{broken", false)
	if err == nil || !strings.HasPrefix(err.Error(), "invalid ui_json payload: ") {
		t.Fatalf("expected ui payload error, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("file written despite invalid payload")
	}
}

func TestOperationsRequireStartedRuntime(t *testing.T) {
	svc := collection.New(studio.New(memengine.New()))
	if _, err := svc.Export(context.Background()); !errors.Is(err, services.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if _, err := svc.Import(context.Background(), `{"scenes":[{"name":"A"}]}`); !errors.Is(err, services.ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestValidateExportedDocument(t *testing.T) {
	svc, rt := newService(t)
	populate(t, rt)
	raw, err := svc.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	violations, err := collection.Validate([]byte(raw))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("exported document should validate, got %v", violations)
	}
}

func TestValidateReportsViolations(t *testing.T) {
	violations, err := collection.Validate([]byte(`{"scenes":[{"sources":[{"name":7}]}]}`))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(violations) == 0 {
		t.Fatalf("expected violations")
	}
	if _, err := collection.Validate([]byte("nope")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for malformed JSON, got %v", err)
	}
}

func TestValidateChecksNumericFields(t *testing.T) {
	valid := `{"name":"x","scenes":[{"name":"A","sources":[{"name":"a","transform":{"pos":{"x":12,"y":3.5}}}]}]}`
	violations, err := collection.Validate([]byte(valid))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected numeric transform to validate, got %v", violations)
	}

	invalid := `{"name":"x","scenes":[{"name":"A","sources":[{"name":"a","transform":{"pos":{"x":"left","y":1}}}]}]}`
	violations, err = collection.Validate([]byte(invalid))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(violations) == 0 {
		t.Fatalf("expected a violation for a string position")
	}

	if _, err := collection.Validate([]byte(valid + ` {}`)); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for trailing data, got %v", err)
	}
}

func TestSchemaDescribesDocument(t *testing.T) {
	raw, err := collection.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %s", raw)
	}
	for _, key := range []string{"name", "scenes"} {
		if _, ok := props[key]; !ok {
			t.Fatalf("schema missing %q", key)
		}
	}
}
