package studio

import (
	"slices"
	"sort"

	"revostream/internal/engine"
	"revostream/internal/services"
)

// EncoderPreference selects the video encoder family tried first.
type EncoderPreference string

const (
	PreferHardware EncoderPreference = "hardware"
	PreferSoftware EncoderPreference = "software"
)

// NormalizeEncoderPreference maps the software aliases to PreferSoftware and
// anything else to PreferHardware.
func NormalizeEncoderPreference(value string) EncoderPreference {
	switch value {
	case "software", "x264", "obs_x264", "legacy", "legacy_x264":
		return PreferSoftware
	default:
		return PreferHardware
	}
}

// state is the graph guarded by Runtime.mu.
type state struct {
	eng engine.Engine

	initialized bool
	scenes      map[string]*sceneState
	order       []string
	current     string
	locked      map[string]bool

	record *outputGroup
	stream *outputGroup

	view   engine.View
	target engine.RenderTarget

	preference EncoderPreference
	resolution string
	fps        uint32
	template   bool
}

func newState(eng engine.Engine) *state {
	return &state{
		eng:        eng,
		scenes:     make(map[string]*sceneState),
		locked:     make(map[string]bool),
		preference: PreferHardware,
	}
}

// sceneState is one scene and the items the runtime owns in it. accent and
// title are also reachable through the scene's item list; that alias never
// owns them.
type sceneState struct {
	name   string
	scene  engine.Scene
	source engine.SourceRef
	accent engine.Item
	title  engine.Item
	custom map[string]engine.Item
}

func newSceneState(name string, scene engine.Scene, source engine.SourceRef) *sceneState {
	return &sceneState{name: name, scene: scene, source: source, custom: make(map[string]engine.Item)}
}

// teardown removes every item and releases the scene, hiding it first when
// it is showing.
func (s *sceneState) teardown(e engine.Engine, showing bool) {
	if showing && !s.source.IsZero() {
		e.SourceDecShowing(s.source.ID())
	}
	s.accent.Release()
	s.title.Release()
	for _, id := range sortedItemKeys(s.custom) {
		s.custom[id].Release()
	}
	clear(s.custom)
	if !s.scene.IsZero() {
		for _, ref := range e.SceneItems(s.scene.ID()) {
			e.SceneItemRemove(ref.ID())
		}
	}
	s.scene.Release()
	s.source = 0
}

// forget drops the bookkeeping for an item removed from the scene.
func (s *sceneState) forget(item engine.ItemID) {
	if s.accent.ID() == item {
		s.accent = engine.Item{}
	}
	if s.title.ID() == item {
		s.title = engine.Item{}
	}
	for id, it := range s.custom {
		if it.ID() == item {
			delete(s.custom, id)
		}
	}
}

func sortedItemKeys(m map[string]engine.Item) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sceneNames returns the user-visible order: order entries that still exist,
// then the remaining scenes sorted by name.
func (st *state) sceneNames() []string {
	names := make([]string, 0, len(st.scenes))
	seen := make(map[string]bool, len(st.scenes))
	for _, name := range st.order {
		if _, ok := st.scenes[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range st.scenes {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func (st *state) currentScene() (*sceneState, error) {
	if st.current == "" {
		return nil, services.Fail(services.ErrNotFound, "no active scene")
	}
	scene, ok := st.scenes[st.current]
	if !ok {
		return nil, services.Fail(services.ErrNotFound, "active scene not found")
	}
	return scene, nil
}

// switchTo makes name the showing scene. The previous scene is hidden before
// the new one is shown and current is updated last.
func (st *state) switchTo(name string) error {
	next, ok := st.scenes[name]
	if !ok {
		return services.Fail(services.ErrNotFound, "scene not found")
	}
	if next.source.IsZero() {
		return services.Fail(services.ErrEngine, "scene source unavailable")
	}
	if st.current == name {
		return nil
	}
	if prev, ok := st.scenes[st.current]; ok && !prev.source.IsZero() {
		st.eng.SourceDecShowing(prev.source.ID())
	}
	st.eng.SetOutputSource(0, next.source.ID())
	st.eng.SourceIncShowing(next.source.ID())
	if !st.view.IsZero() {
		st.eng.ViewSetSource(st.view.ID(), 0, next.source.ID())
	}
	st.current = name
	return nil
}

// addScene creates an empty scene and registers it without switching to it.
func (st *state) addScene(name string) (*sceneState, bool) {
	scene := engine.CreateScene(st.eng, name)
	if scene.IsZero() {
		return nil, false
	}
	ss := newSceneState(name, scene, st.eng.SceneSource(scene.ID()))
	st.scenes[name] = ss
	if !slices.Contains(st.order, name) {
		st.order = append(st.order, name)
	}
	return ss, true
}

// resetScenes tears down every scene regardless of locks.
func (st *state) resetScenes() {
	if !st.view.IsZero() {
		st.eng.ViewSetSource(st.view.ID(), 0, 0)
	}
	st.eng.SetOutputSource(0, 0)
	for _, name := range st.sceneNames() {
		st.scenes[name].teardown(st.eng, name == st.current)
	}
	clear(st.scenes)
	clear(st.locked)
	st.order = nil
	st.current = ""
}

// moveIndex removes the entry at from and reinserts it at to. When to lies
// after from it is decremented first, then clamped to the list length.
func moveIndex[T any](list []T, from, to int) []T {
	entry := list[from]
	list = slices.Delete(list, from, from+1)
	if to > from {
		to--
	}
	to = max(0, min(to, len(list)))
	return slices.Insert(list, to, entry)
}
