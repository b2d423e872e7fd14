package studio

import (
	"context"

	"revostream/internal/engine"
	"revostream/internal/services"
)

// Graph is lock-scoped access to the scene graph for bulk readers and
// writers such as collection import and export. A Graph is valid only inside
// the callback it was passed to.
type Graph struct {
	st *state
}

// WithGraph runs fn with the runtime lock held. The runtime must be started.
func (r *Runtime) WithGraph(ctx context.Context, op string, fn func(g *Graph) error) error {
	err := r.initialized(func(st *state) error {
		return fn(&Graph{st: st})
	})
	if err != nil {
		r.logResult(ctx, op, "", err)
	}
	return err
}

// Engine returns the engine. Calls must not outlive the callback.
func (g *Graph) Engine() engine.Engine { return g.st.eng }

// SceneNames returns the scenes in user order.
func (g *Graph) SceneNames() []string { return g.st.sceneNames() }

// CurrentScene returns the showing scene, empty when none.
func (g *Graph) CurrentScene() string { return g.st.current }

// SceneItems lists the items of a scene bottom to top.
func (g *Graph) SceneItems(name string) []engine.ItemRef {
	ss, ok := g.st.scenes[name]
	if !ok || ss.scene.IsZero() {
		return nil
	}
	return g.st.eng.SceneItems(ss.scene.ID())
}

// Filters lists the filter chain of src.
func (g *Graph) Filters(src engine.SourceID) []FilterSpec {
	return readFilters(g.st.eng, src)
}

// Reset tears down every scene, ignoring locks. The graph is empty until
// scenes are created again.
func (g *Graph) Reset() { g.st.resetScenes() }

// EnsureScene creates name unless it already exists. It does not switch.
func (g *Graph) EnsureScene(name string) error {
	if _, ok := g.st.scenes[name]; ok {
		return nil
	}
	if _, ok := g.st.addScene(name); !ok {
		return services.Fail(services.ErrEngine, "failed to create scene")
	}
	return nil
}

// SetCurrentScene shows name.
func (g *Graph) SetCurrentScene(name string) error { return g.st.switchTo(name) }

// CreateSource adds an item to the named scene with the same rules as
// Runtime.CreateSource.
func (g *Graph) CreateSource(scene string, req SourceCreate) (string, error) {
	ss, ok := g.st.scenes[scene]
	if !ok {
		return "", services.Fail(services.ErrNotFound, "scene not found")
	}
	return g.st.createSource(ss, req)
}

// ApplyFilters adds or updates filters on the source of item id in scene.
// Filters not named in specs are kept.
func (g *Graph) ApplyFilters(scene, id string, specs []FilterSpec) {
	ss, ok := g.st.scenes[scene]
	if !ok || len(specs) == 0 {
		return
	}
	item, found := ss.resolve(g.st.eng, id)
	if !found || item.IsZero() {
		return
	}
	src := g.st.eng.ItemSource(item.ID())
	if src.IsZero() {
		return
	}
	applyFilters(g.st.eng, src.ID(), specs, false)
}
