package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"revostream/internal/engine"
	"revostream/internal/fileutil"
	"revostream/internal/logging"
	"revostream/internal/params"
	"revostream/internal/services"
	"revostream/internal/studio"
)

// Export returns the own-schema document of the live graph as indented JSON.
// Output is byte-identical for an unchanged graph.
func (s *Service) Export(ctx context.Context) (string, error) {
	var doc Document
	err := s.rt.WithGraph(ctx, "export_collection", func(g *studio.Graph) error {
		doc = snapshot(g)
		return nil
	})
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", services.Failf(services.ErrTransient, "export failed: %w", err)
	}
	return string(out), nil
}

// snapshot walks the scenes in user order and their items in engine order.
func snapshot(g *studio.Graph) Document {
	e := g.Engine()
	doc := Document{Name: DefaultName, Scenes: []Scene{}}
	for _, name := range g.SceneNames() {
		scene := Scene{Name: name, Sources: []Source{}}
		for _, ref := range g.SceneItems(name) {
			src := e.ItemSource(ref.ID())
			if src.IsZero() {
				continue
			}
			scene.Sources = append(scene.Sources, exportSource(g, ref, src.ID()))
		}
		doc.Scenes = append(doc.Scenes, scene)
	}
	return doc
}

func exportSource(g *studio.Graph, ref engine.ItemRef, src engine.SourceID) Source {
	e := g.Engine()
	typ := e.SourceType(src)
	if typ == "" {
		typ = "Unknown"
	}
	t := e.ItemTransform(ref.ID())
	out := Source{
		Name:     e.SourceName(src),
		ID:       typ,
		Settings: params.Extract(e.SourceSettings(src)),
		Filters:  []Filter{},
		Visible:  e.ItemVisible(ref.ID()),
		Transform: Transform{
			Pos:   Vec2{X: t.Pos.X, Y: t.Pos.Y},
			Scale: Vec2{X: t.Scale.X, Y: t.Scale.Y},
		},
	}
	if w, h := e.SourceSize(src); w > 0 && h > 0 {
		out.Transform.Size = &Size{Width: float64(w) * t.Scale.X, Height: float64(h) * t.Scale.Y}
	}
	for _, f := range g.Filters(src) {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		p := f.Params
		if p == nil {
			p = map[string]string{}
		}
		out.Filters = append(out.Filters, Filter{Name: f.Name, Kind: f.Kind, Enabled: f.Enabled, Params: p})
	}
	return out
}

// ExportNative returns the engine-native document: the engine's saved
// sources, the scene order, the current scene marker and a version.
func (s *Service) ExportNative(ctx context.Context) (string, error) {
	var doc *engine.Data
	err := s.rt.WithGraph(ctx, "export_collection_native", func(g *studio.Graph) error {
		names := g.SceneNames()
		current := g.CurrentScene()
		if current == "" && len(names) > 0 {
			current = names[0]
		}
		if current == "" {
			current = "Scene"
		}
		order := make([]*engine.Data, 0, len(names))
		for _, name := range names {
			entry := engine.NewData()
			entry.SetString("name", name)
			order = append(order, entry)
		}
		doc = engine.NewData()
		doc.SetArray("sources", g.Engine().SaveSources())
		doc.SetArray("scene_order", order)
		doc.SetString("current_scene", current)
		doc.SetString("current_program_scene", current)
		doc.SetString("name", DefaultName)
		doc.SetInt("version", 1)
		return nil
	})
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", services.Failf(services.ErrTransient, "failed to serialize native collection: %w", err)
	}
	return string(out), nil
}

// ExportToFile writes an export to path. A non-empty uiJSON is parsed and
// stored under revo_ui. Parent directories are created.
func (s *Service) ExportToFile(ctx context.Context, path, uiJSON string, native bool) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Fail(services.ErrValidation, "Output path required")
	}
	var raw string
	var err error
	if native {
		raw, err = s.ExportNative(ctx)
	} else {
		raw, err = s.Export(ctx)
	}
	if err != nil {
		return "", err
	}

	var exported map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&exported); err != nil {
		return "", services.Failf(services.ErrTransient, "failed to parse exported scene collection: %w", err)
	}
	if trimmed := strings.TrimSpace(uiJSON); trimmed != "" {
		var ui any
		uiDec := json.NewDecoder(strings.NewReader(trimmed))
		uiDec.UseNumber()
		if err := uiDec.Decode(&ui); err != nil {
			return "", services.Failf(services.ErrValidation, "invalid ui_json payload: %w", err)
		}
		exported["revo_ui"] = ui
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(exported); err != nil {
		return "", services.Failf(services.ErrTransient, "failed to serialize scene collection: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, bytes.TrimRight(buf.Bytes(), "\n"), 0o644); err != nil {
		return "", services.Failf(services.ErrConfiguration, "failed to write file: %w", err)
	}

	s.logger.Info("scene collection exported",
		logging.String(logging.FieldEventType, "collection_exported"),
		logging.String("path", path),
		logging.Bool("native", native),
	)
	s.record(ctx, "export_collection", map[string]any{"path": path, "native": native})
	if native {
		return fmt.Sprintf("OBS scenes exported to %s", path), nil
	}
	return fmt.Sprintf("Scenes exported to %s", path), nil
}
