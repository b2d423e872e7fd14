package studio

import (
	"context"
	"errors"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/params"
	"revostream/internal/services"
)

// SourceInfo describes one item of the current scene.
type SourceInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Visible    bool              `json:"visible"`
	SourceType string            `json:"source_type"`
	Params     map[string]string `json:"params"`
}

// SourceCreate requests a new item in the current scene.
type SourceCreate struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   string            `json:"source_type"`
	Params map[string]string `json:"params"`
	// Visible overrides the initial visibility; nil means visible.
	Visible *bool `json:"visible,omitempty"`
}

// SourceUpdate changes an existing item. An empty Type or "Unknown" keeps the
// live type.
type SourceUpdate struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Type   string            `json:"source_type"`
	Params map[string]string `json:"params"`
}

// SourceSettings is the editable view of one item.
type SourceSettings struct {
	Name       string                `json:"name"`
	SourceType string                `json:"source_type"`
	Params     map[string]string     `json:"params"`
	Properties []params.PropertySpec `json:"source_properties"`
}

// SourceType is one instantiable input type.
type SourceType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const unknownType = "Unknown"

// windowCaptureAliases pairs capture types that stand in for each other.
var windowCaptureAliases = map[string]string{
	"window_capture":   "xcomposite_input",
	"xcomposite_input": "window_capture",
}

// ListSources returns the items of the current scene bottom to top. It is
// empty before Start.
func (r *Runtime) ListSources(ctx context.Context) ([]SourceInfo, error) {
	var out []SourceInfo
	err := r.locked(func(st *state) error {
		if !st.initialized {
			return nil
		}
		scene, err := st.currentScene()
		if err != nil {
			return err
		}
		out = st.collectSources(scene)
		return nil
	})
	return out, err
}

func (st *state) collectSources(scene *sceneState) []SourceInfo {
	out := []SourceInfo{}
	if scene.scene.IsZero() {
		return out
	}
	seen := make(map[string]bool)
	for _, ref := range st.eng.SceneItems(scene.scene.ID()) {
		src := st.eng.ItemSource(ref.ID())
		if src.IsZero() {
			continue
		}
		id := scene.displayID(st.eng, ref)
		if seen[id] {
			continue
		}
		seen[id] = true

		p := params.Extract(st.eng.SourceSettings(src.ID()))
		params.HexColors(p)
		w, h := st.eng.SourceSize(src.ID())
		params.TransformParams(p, st.eng.ItemTransform(ref.ID()), w, h, false)

		name := st.eng.SourceName(src.ID())
		if name == "" {
			name = "Source"
		}
		typ := st.eng.SourceType(src.ID())
		if typ == "" {
			typ = unknownType
		}
		out = append(out, SourceInfo{
			ID:         id,
			Name:       name,
			Visible:    st.eng.ItemVisible(ref.ID()),
			SourceType: typ,
			Params:     p,
		})
	}
	return out
}

// CreateSource adds a new item to the current scene.
func (r *Runtime) CreateSource(ctx context.Context, req SourceCreate) (string, error) {
	return r.message(ctx, "create_source", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		msg, err := st.createSource(scene, req)
		if err != nil {
			if errors.Is(err, services.ErrEngine) {
				r.engineWarn(ctx, "create_source", "source creation failed",
					logging.String("source_type", req.Type), logging.Error(err))
			}
			return "", err
		}
		r.queue(ctx, "create_source", map[string]any{"id": req.ID, "source_type": req.Type})
		return msg, nil
	})
}

// createSource instantiates req in scene and registers the item under its id.
func (st *state) createSource(scene *sceneState, req SourceCreate) (string, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return "", services.Fail(services.ErrValidation, "source id required")
	}
	if item, _ := scene.resolve(st.eng, id); !item.IsZero() {
		return "", services.Fail(services.ErrConflict, "source id already exists")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = id
	}
	requested := strings.TrimSpace(req.Type)
	if requested == "" {
		return "", services.Fail(services.ErrValidation, "source type required")
	}
	typ := st.resolveInputType(requested)

	settings := engine.NewData()
	params.Apply(settings, typ, req.Params, params.EditableListKeys(st.eng.SourceProperties(typ)))
	src := engine.CreateSource(st.eng, typ, name, settings)
	if src.IsZero() {
		return "", services.Failf(services.ErrEngine, "failed to create source '%s'", requested)
	}
	defer src.Release()

	item := engine.AddToScene(st.eng, scene.scene.ID(), src.ID())
	if item.IsZero() {
		return "", services.Fail(services.ErrEngine, "failed to add source to scene")
	}
	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	st.eng.ItemSetVisible(item.ID(), visible)
	st.applyPlacement(item.Borrow(), src.ID(), req.Params)
	params.ParseAudio(req.Params).Apply(st.eng, src.ID())

	scene.custom[id] = item
	return "created " + id, nil
}

// resolveInputType returns typ when the engine offers it, else its alias when
// that is offered, else typ unchanged.
func (st *state) resolveInputType(typ string) string {
	types := st.eng.InputTypes()
	if slices.Contains(types, typ) {
		return typ
	}
	if alias, ok := windowCaptureAliases[typ]; ok && slices.Contains(types, alias) {
		return alias
	}
	return typ
}

func (st *state) applyPlacement(item engine.ItemRef, src engine.SourceID, p map[string]string) {
	w, h := st.eng.SourceSize(src)
	t := params.ApplyTransform(st.eng.ItemTransform(item.ID()), w, h, p)
	st.eng.ItemSetTransform(item.ID(), t)
}

// UpdateSource renames an item's source and applies new settings, placement
// and audio controls.
func (r *Runtime) UpdateSource(ctx context.Context, req SourceUpdate) (string, error) {
	return r.message(ctx, "update_source", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		item, err := scene.lookup(st.eng, req.ID)
		if err != nil {
			return "", err
		}
		src := st.eng.ItemSource(item.ID())
		if src.IsZero() {
			return "", services.Fail(services.ErrNotFound, "source not available")
		}
		r.queue(ctx, "update_source", map[string]any{
			"id": req.ID, "name": req.Name, "source_type": req.Type, "params": req.Params,
		})

		if name := strings.TrimSpace(req.Name); name != "" {
			st.eng.SourceSetName(src.ID(), name)
		}
		live := st.eng.SourceType(src.ID())
		typ := strings.TrimSpace(req.Type)
		if typ == "" || typ == unknownType {
			typ = live
		}
		settings := st.eng.SourceSettings(src.ID())
		params.Apply(settings, typ, req.Params, params.EditableListKeys(st.eng.SourceProperties(live)))
		st.eng.SourceUpdate(src.ID(), settings)
		st.applyPlacement(item, src.ID(), req.Params)
		params.ParseAudio(req.Params).Apply(st.eng, src.ID())

		if typ != "ffmpeg_source" {
			visible := st.eng.ItemVisible(item.ID())
			st.eng.ItemSetVisible(item.ID(), false)
			st.eng.ItemSetVisible(item.ID(), visible)
		}
		return "updated", nil
	})
}

// RemoveSource removes an item registered under a reserved or custom id.
// Items only reachable by source name cannot be removed.
func (r *Runtime) RemoveSource(ctx context.Context, id string) (string, error) {
	return r.message(ctx, "remove_source", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		var slot *engine.Item
		switch key := parseItemKey(id); key.kind {
		case keyAccent:
			slot = &scene.accent
		case keyTitle:
			slot = &scene.title
		default:
			it, ok := scene.custom[key.id]
			if !ok {
				return "", services.Fail(services.ErrNotFound, "unknown source id")
			}
			slot = &it
		}
		if slot.IsZero() {
			return "", services.Fail(services.ErrNotFound, "source not available")
		}
		item := *slot
		scene.forget(item.ID())
		item.Release()
		r.queue(ctx, "remove_source", map[string]any{"id": id})
		return "removed " + id, nil
	})
}

// SetSourceVisible shows or hides an item.
func (r *Runtime) SetSourceVisible(ctx context.Context, id string, visible bool) error {
	_, err := r.message(ctx, "set_source_visible", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		item, err := scene.lookup(st.eng, id)
		if err != nil {
			return "", err
		}
		st.eng.ItemSetVisible(item.ID(), visible)
		r.queue(ctx, "set_source_visible", map[string]any{"id": id, "visible": visible})
		return "ok", nil
	})
	return err
}

// MoveSource moves an item one step or to an end of the stack.
func (r *Runtime) MoveSource(ctx context.Context, id, direction string) error {
	_, err := r.message(ctx, "move_source", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		item, err := scene.lookup(st.eng, id)
		if err != nil {
			return "", err
		}
		var move engine.OrderMovement
		switch direction {
		case "up":
			move = engine.OrderMoveUp
		case "down":
			move = engine.OrderMoveDown
		case "top":
			move = engine.OrderMoveTop
		case "bottom":
			move = engine.OrderMoveBottom
		default:
			return "", services.Fail(services.ErrValidation, "invalid direction")
		}
		st.eng.ItemSetOrder(item.ID(), move)
		r.queue(ctx, "move_source", map[string]any{"id": id, "direction": direction})
		return "ok", nil
	})
	return err
}

// ReorderSource moves an item to index to, bottom first, and pushes the whole
// order to the engine in one call.
func (r *Runtime) ReorderSource(ctx context.Context, id string, to int) error {
	_, err := r.message(ctx, "reorder_source", func(st *state) (string, error) {
		scene, err := st.currentScene()
		if err != nil {
			return "", err
		}
		if scene.scene.IsZero() {
			return "", services.Fail(services.ErrEngine, "scene unavailable")
		}
		items := st.eng.SceneItems(scene.scene.ID())
		from := -1
		for i, ref := range items {
			if scene.displayID(st.eng, ref) == id {
				from = i
				break
			}
		}
		if from < 0 {
			return "", services.Fail(services.ErrNotFound, "unknown source id")
		}
		items = moveIndex(items, from, to)
		order := make([]engine.ItemID, len(items))
		for i, ref := range items {
			order[i] = ref.ID()
		}
		if !st.eng.SceneReorderItems(scene.scene.ID(), order) {
			r.engineWarn(ctx, "reorder_source", "scene reorder rejected", logging.String("scene", scene.name))
			return "", services.Fail(services.ErrEngine, "failed to reorder sources")
		}
		r.queue(ctx, "reorder_source", map[string]any{"id": id, "index": to})
		return "ok", nil
	})
	return err
}

// GetSourceSettings returns the editable settings of an item with color
// properties rendered as hex and placement included.
func (r *Runtime) GetSourceSettings(ctx context.Context, id string) (SourceSettings, error) {
	var out SourceSettings
	err := r.initialized(func(st *state) error {
		scene, err := st.currentScene()
		if err != nil {
			return err
		}
		item, found := scene.resolve(st.eng, id)
		if !found {
			return services.Fail(services.ErrNotFound, "unknown source id")
		}
		if item.IsZero() {
			return services.Fail(services.ErrNotFound, "source not available")
		}
		src := st.eng.ItemSource(item.ID())
		if src.IsZero() {
			return services.Fail(services.ErrNotFound, "source not available")
		}
		typ := st.eng.SourceType(src.ID())
		if typ == "" {
			typ = unknownType
		}
		p := params.Extract(st.eng.SourceSettings(src.ID()))
		specs := params.PropertySpecs(st.eng.SourceProperties(typ))
		params.HexColorKeys(p, params.ColorKeys(specs))
		w, h := st.eng.SourceSize(src.ID())
		params.TransformParams(p, st.eng.ItemTransform(item.ID()), w, h, true)
		out = SourceSettings{
			Name:       st.eng.SourceName(src.ID()),
			SourceType: typ,
			Params:     p,
			Properties: specs,
		}
		return nil
	})
	return out, err
}

// SourceProperties describes the properties of an input type.
func (r *Runtime) SourceProperties(ctx context.Context, typ string) ([]params.PropertySpec, error) {
	var out []params.PropertySpec
	err := r.initialized(func(st *state) error {
		out = params.PropertySpecs(st.eng.SourceProperties(strings.TrimSpace(typ)))
		return nil
	})
	return out, err
}

// ListSourceTypes returns the input types sorted by label then id.
func (r *Runtime) ListSourceTypes(ctx context.Context) ([]SourceType, error) {
	var out []SourceType
	err := r.locked(func(st *state) error {
		if !st.initialized {
			return nil
		}
		for _, id := range st.eng.InputTypes() {
			label := st.eng.SourceTypeLabel(id)
			if label == "" {
				label = id
			}
			out = append(out, SourceType{ID: id, Label: label})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(out, func(a, b SourceType) int {
		if c := col.CompareString(a.Label, b.Label); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	out = slices.CompactFunc(out, func(a, b SourceType) bool { return a.ID == b.ID })
	return out, nil
}
