package studio

import (
	"context"
	"fmt"
	"strings"

	"revostream/internal/engine"
	"revostream/internal/params"
	"revostream/internal/services"
)

// FilterSpec is the caller-facing form of one filter on a source.
type FilterSpec struct {
	Name    string            `json:"name"`
	Kind    string            `json:"kind"`
	Enabled bool              `json:"enabled"`
	Params  map[string]string `json:"params"`
}

// filterKinds maps normalized kinds to engine filter types, preferred first.
var filterKinds = []struct {
	kind  string
	types []string
}{
	{"color_correction", []string{"color_filter_v2", "color_filter"}},
	{"chroma_key", []string{"chroma_key_filter_v2", "chroma_key_filter"}},
	{"crop_pad", []string{"crop_filter"}},
	{"gain", []string{"gain_filter"}},
	{"sharpness", []string{"sharpness_filter"}},
	{"scroll", []string{"scroll_filter"}},
}

// FilterKind returns the normalized kind of an engine filter type. Unknown
// types map to themselves.
func FilterKind(typeID string) string {
	for _, fk := range filterKinds {
		for _, t := range fk.types {
			if t == typeID {
				return fk.kind
			}
		}
	}
	return typeID
}

// FilterTypes returns the engine types for a kind, preferred first. Unknown
// kinds have none.
func FilterTypes(kind string) []string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, fk := range filterKinds {
		if fk.kind == kind {
			return fk.types
		}
	}
	return nil
}

// readFilters lists the filter chain of src in engine order.
func readFilters(e engine.Engine, src engine.SourceID) []FilterSpec {
	var out []FilterSpec
	for _, ref := range e.SourceFilters(src) {
		if ref.IsZero() {
			continue
		}
		p := params.Extract(e.SourceSettings(ref.ID()))
		params.HexColors(p)
		out = append(out, FilterSpec{
			Name:    e.SourceName(ref.ID()),
			Kind:    FilterKind(e.SourceType(ref.ID())),
			Enabled: e.SourceEnabled(ref.ID()),
			Params:  p,
		})
	}
	return out
}

// applyFilters updates filters by name and creates the missing ones with the
// first type the engine accepts. With prune set, filters whose names are not
// in specs are removed afterwards.
func applyFilters(e engine.Engine, src engine.SourceID, specs []FilterSpec, prune bool) {
	desired := make(map[string]bool, len(specs))
	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			name = fmt.Sprintf("Filter %d", i+1)
		}
		desired[name] = true

		types := FilterTypes(spec.Kind)
		if len(types) == 0 {
			continue
		}
		if existing := e.SourceFilterByName(src, name); !existing.IsZero() {
			settings := e.SourceSettings(existing.ID())
			params.Apply(settings, types[0], spec.Params, nil)
			e.SourceUpdate(existing.ID(), settings)
			e.SourceSetEnabled(existing.ID(), spec.Enabled)
			continue
		}
		settings := engine.NewData()
		params.Apply(settings, types[0], spec.Params, nil)
		var filter engine.Source
		for _, typ := range types {
			filter = engine.CreateSource(e, typ, name, settings)
			if !filter.IsZero() {
				break
			}
		}
		if filter.IsZero() {
			continue
		}
		e.SourceFilterAdd(src, filter.ID())
		e.SourceSetEnabled(filter.ID(), spec.Enabled)
		filter.Release()
	}
	if !prune {
		return
	}
	for _, ref := range e.SourceFilters(src) {
		if !desired[e.SourceName(ref.ID())] {
			e.SourceFilterRemove(src, ref.ID())
		}
	}
}

// ListFilters returns the filter chain of an item's source in the current scene.
func (r *Runtime) ListFilters(ctx context.Context, id string) ([]FilterSpec, error) {
	var out []FilterSpec
	err := r.initialized(func(st *state) error {
		src, err := st.itemSource(id)
		if err != nil {
			return err
		}
		out = readFilters(st.eng, src)
		return nil
	})
	return out, err
}

// SetSourceFilters makes the filter chain of an item's source match specs.
func (r *Runtime) SetSourceFilters(ctx context.Context, id string, specs []FilterSpec) (string, error) {
	return r.message(ctx, "set_source_filters", func(st *state) (string, error) {
		src, err := st.itemSource(id)
		if err != nil {
			return "", err
		}
		applyFilters(st.eng, src, specs, true)
		r.queue(ctx, "set_source_filters", map[string]any{"id": id, "count": len(specs)})
		return "filters-updated", nil
	})
}

// itemSource resolves id in the current scene to its source.
func (st *state) itemSource(id string) (engine.SourceID, error) {
	scene, err := st.currentScene()
	if err != nil {
		return 0, err
	}
	item, err := scene.lookup(st.eng, id)
	if err != nil {
		return 0, err
	}
	src := st.eng.ItemSource(item.ID())
	if src.IsZero() {
		return 0, services.Fail(services.ErrNotFound, "source not available")
	}
	return src.ID(), nil
}
