package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/params"
	"revostream/internal/services"
	"revostream/internal/studio"
)

// Result summarizes an import.
type Result struct {
	Message string `json:"message"`
	Scenes  int    `json:"scenes"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Skips   []Skip `json:"skips,omitempty"`
}

// Skip is one source that could not be created.
type Skip struct {
	Scene  string `json:"scene"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// outcome is the result of one attempted source.
type outcome struct {
	scene  string
	source string
	err    error
}

// tally accumulates per-source outcomes. The import succeeds when at least
// one outcome has no error.
type tally struct {
	outcomes []outcome
}

func (t *tally) add(scene, source string, err error) {
	t.outcomes = append(t.outcomes, outcome{scene: scene, source: source, err: err})
}

func (t *tally) created() int {
	n := 0
	for _, o := range t.outcomes {
		if o.err == nil {
			n++
		}
	}
	return n
}

func (t *tally) skips() []Skip {
	var out []Skip
	for _, o := range t.outcomes {
		if o.err != nil {
			out = append(out, Skip{Scene: o.scene, Source: o.source, Reason: o.err.Error()})
		}
	}
	return out
}

// catalogEntry is one element of a native "sources" array.
type catalogEntry struct {
	ID       string         `mapstructure:"id"`
	Name     string         `mapstructure:"name"`
	Settings any            `mapstructure:"settings"`
	Filters  []nativeFilter `mapstructure:"filters"`
}

type nativeFilter struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Enabled  *bool  `mapstructure:"enabled"`
	Settings any    `mapstructure:"settings"`
}

// itemNode is one item of a scene in either document shape.
type itemNode struct {
	Name       string         `mapstructure:"name"`
	SourceName string         `mapstructure:"source_name"`
	ID         any            `mapstructure:"id"`
	SourceType string         `mapstructure:"source_type"`
	Type       string         `mapstructure:"type"`
	Settings   any            `mapstructure:"settings"`
	Params     any            `mapstructure:"params"`
	Visible    *bool          `mapstructure:"visible"`
	Pos        *vecNode       `mapstructure:"pos"`
	Scale      *vecNode       `mapstructure:"scale"`
	Bounds     *vecNode       `mapstructure:"bounds"`
	Transform  *transformNode `mapstructure:"transform"`
	Filters    []filterNode   `mapstructure:"filters"`
}

type vecNode struct {
	X *float64 `mapstructure:"x"`
	Y *float64 `mapstructure:"y"`
}

type sizeNode struct {
	Width  *float64 `mapstructure:"width"`
	Height *float64 `mapstructure:"height"`
}

type transformNode struct {
	Pos   *vecNode  `mapstructure:"pos"`
	Scale *vecNode  `mapstructure:"scale"`
	Size  *sizeNode `mapstructure:"size"`
}

type filterNode struct {
	Name    string         `mapstructure:"name"`
	Kind    string         `mapstructure:"kind"`
	Enabled *bool          `mapstructure:"enabled"`
	Params  map[string]any `mapstructure:"params"`
}

// sceneNode is a scene to rebuild with its raw item nodes.
type sceneNode struct {
	name  string
	items []any
}

// typeAliases maps legacy type names to the current implementations.
var typeAliases = map[string]string{
	"color_source":    "color_source_v2",
	"text_ft2_source": "text_ft2_source_v2",
	"text_gdiplus":    "text_ft2_source_v2",
}

const defaultItemType = "color_source"

func decodeNode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// Import replaces the whole graph with the scenes of raw. Either document
// shape is accepted. Sources that fail to create are skipped; the call fails
// only when none was created. Locks do not protect scenes from the reset.
func (s *Service) Import(ctx context.Context, raw string) (Result, error) {
	var doc any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Result{}, services.Failf(services.ErrValidation, "invalid JSON: %v", err)
	}
	catalog, scenes := nativeScenes(doc)
	if len(scenes) == 0 {
		scenes = ownScenes(doc)
	}
	if len(scenes) == 0 {
		return Result{}, services.Fail(services.ErrValidation, "missing scenes array")
	}

	var t tally
	err := s.rt.WithGraph(ctx, "import_collection", func(g *studio.Graph) error {
		g.Reset()
		first := ""
		for _, sc := range scenes {
			if first == "" {
				first = sc.name
			}
			if err := g.EnsureScene(sc.name); err != nil {
				return err
			}
			for _, rawItem := range sc.items {
				name, err := importItem(g, sc.name, rawItem, catalog)
				t.add(sc.name, name, err)
			}
		}
		if first != "" {
			_ = g.SetCurrentScene(first)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Scenes: len(scenes), Created: t.created(), Skips: t.skips()}
	res.Skipped = len(res.Skips)
	for _, skip := range res.Skips {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "collection source skipped", "collection_source_skipped",
			logging.String("scene", skip.Scene),
			logging.String("source", skip.Source),
			logging.String(logging.FieldErrorHint, skip.Reason),
			logging.String(logging.FieldImpact, "source missing from imported scene"),
		)
	}
	if res.Created == 0 {
		return res, services.Fail(services.ErrValidation, "no sources imported (unsupported types?)")
	}
	res.Message = "scene collection imported"
	if res.Skipped > 0 {
		res.Message = fmt.Sprintf("scene collection imported with %d skipped sources", res.Skipped)
	}
	s.logger.Info("scene collection imported",
		logging.String(logging.FieldEventType, "collection_imported"),
		logging.Int("scenes", res.Scenes),
		logging.Int("created", res.Created),
		logging.Int("skipped", res.Skipped),
	)
	s.record(ctx, "import_collection", map[string]any{
		"scenes": res.Scenes, "created": res.Created, "skipped": res.Skipped,
	})
	return res, nil
}

// nativeScenes reads a native "sources" array into a name-keyed catalog and
// the scenes rebuilt from its scene entries.
func nativeScenes(doc any) (map[string]catalogEntry, []sceneNode) {
	catalog := make(map[string]catalogEntry)
	obj, ok := doc.(map[string]any)
	if !ok {
		return catalog, nil
	}
	arr, ok := obj["sources"].([]any)
	if !ok {
		return catalog, nil
	}
	var scenes []sceneNode
	for _, rawEntry := range arr {
		var entry catalogEntry
		if err := decodeNode(rawEntry, &entry); err != nil {
			continue
		}
		if entry.Name != "" {
			catalog[entry.Name] = entry
		}
		if entry.ID != "scene" {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "Scene"
		}
		var items []any
		if settings, ok := entry.Settings.(map[string]any); ok {
			items, _ = settings["items"].([]any)
		}
		scenes = append(scenes, sceneNode{name: name, items: items})
	}
	return catalog, scenes
}

// ownScenes reads a top-level "scenes" array or a bare array of scenes.
func ownScenes(doc any) []sceneNode {
	var arr []any
	switch v := doc.(type) {
	case map[string]any:
		arr, _ = v["scenes"].([]any)
	case []any:
		arr = v
	}
	var scenes []sceneNode
	for _, rawScene := range arr {
		obj, ok := rawScene.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["name"].(string)
		if name == "" {
			name = "Scene"
		}
		items, ok := obj["sources"].([]any)
		if !ok {
			items, _ = obj["items"].([]any)
		}
		scenes = append(scenes, sceneNode{name: name, items: items})
	}
	return scenes
}

// importItem creates one item in scene and applies its filters. It returns
// the item name for the outcome record.
func importItem(g *studio.Graph, scene string, rawItem any, catalog map[string]catalogEntry) (string, error) {
	var node itemNode
	if err := decodeNode(rawItem, &node); err != nil {
		return "Source", services.Failf(services.ErrValidation, "invalid source entry: %v", err)
	}
	name := node.Name
	if name == "" {
		name = node.SourceName
	}
	if name == "" {
		name = "Source"
	}

	var typ string
	var settings any
	var nativeFilters []nativeFilter
	if entry, ok := catalog[name]; ok {
		typ, settings, nativeFilters = entry.ID, entry.Settings, entry.Filters
	} else {
		typ = firstNonEmpty(stringValue(node.ID), node.SourceType, node.Type, defaultItemType)
		settings = node.Settings
		if settings == nil {
			settings = node.Params
		}
	}
	if alias, ok := typeAliases[typ]; ok {
		typ = alias
	}

	p := settingsParams(settings)
	mergePlacement(p, &node)

	if _, err := g.CreateSource(scene, studio.SourceCreate{
		ID:      name,
		Name:    name,
		Type:    typ,
		Params:  p,
		Visible: node.Visible,
	}); err != nil {
		return name, err
	}

	specs := make([]studio.FilterSpec, 0, len(node.Filters)+len(nativeFilters))
	for _, f := range node.Filters {
		enabled := true
		if f.Enabled != nil {
			enabled = *f.Enabled
		}
		kind := f.Kind
		if kind == "" {
			kind = "custom"
		}
		specs = append(specs, studio.FilterSpec{Name: f.Name, Kind: kind, Enabled: enabled, Params: scalarParams(f.Params)})
	}
	for _, f := range nativeFilters {
		enabled := true
		if f.Enabled != nil {
			enabled = *f.Enabled
		}
		specs = append(specs, studio.FilterSpec{
			Name: f.Name, Kind: studio.FilterKind(f.ID), Enabled: enabled, Params: settingsParams(f.Settings),
		})
	}
	g.ApplyFilters(scene, name, specs)
	return name, nil
}

// settingsParams flattens a settings object through the settings bridge so
// nested fonts and arrays come out the same way as from a live source.
func settingsParams(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return map[string]string{}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return map[string]string{}
	}
	data, err := engine.ParseData(raw)
	if err != nil {
		return map[string]string{}
	}
	return params.Extract(data)
}

// scalarParams keeps string, number and bool values.
func scalarParams(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case float64:
			out[k] = params.FormatFloat(val)
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out
}

// mergePlacement folds the flat and nested placement conventions into p.
// Nested transform values win over flat ones.
func mergePlacement(p map[string]string, node *itemNode) {
	setVec := func(v *vecNode, kx, ky string, positive bool) {
		if v == nil {
			return
		}
		if v.X != nil && (!positive || *v.X > 0) {
			p[kx] = params.FormatFloat(*v.X)
		}
		if v.Y != nil && (!positive || *v.Y > 0) {
			p[ky] = params.FormatFloat(*v.Y)
		}
	}
	setVec(node.Pos, "pos_x", "pos_y", false)
	setVec(node.Scale, "scale_x", "scale_y", false)
	setVec(node.Bounds, "item_width", "item_height", true)
	if t := node.Transform; t != nil {
		setVec(t.Pos, "pos_x", "pos_y", false)
		if t.Size != nil {
			setVec(&vecNode{X: t.Size.Width, Y: t.Size.Height}, "item_width", "item_height", false)
		}
		setVec(t.Scale, "scale_x", "scale_y", false)
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
