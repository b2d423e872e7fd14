package memengine

import (
	"revostream/internal/engine"
)

type source struct {
	id         engine.SourceID
	typ        string
	name       string
	filter     bool
	scene      engine.SceneID
	refs       int
	showing    int
	enabled    bool
	settings   *engine.Data
	filters    []engine.SourceID
	volume     float64
	muted      bool
	monitoring engine.Monitoring
	mixers     uint32
}

func (e *Engine) newSource(typ, name string, settings *engine.Data, t *typeInfo) *source {
	s := &source{
		id:      engine.SourceID(e.id()),
		typ:     typ,
		name:    name,
		refs:    1,
		enabled: true,
		volume:  1,
		mixers:  0x3f,
	}
	if settings != nil {
		s.settings = settings.Clone()
	} else {
		s.settings = engine.NewData()
	}
	if t != nil {
		s.filter = t.kind == kindFilter
		if t.defaults != nil {
			s.settings.ApplyDefaults(t.defaults())
		}
	}
	e.sources[s.id] = s
	return s
}

func (e *Engine) SourceCreate(typ, name string, settings *engine.Data) engine.SourceID {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.lookupType(typ, kindInput, kindFilter)
	if t == nil {
		return 0
	}
	return e.newSource(typ, name, settings, t).id
}

func (e *Engine) SourceRelease(src engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseSource(src)
}

// releaseSource drops one reference and destroys the source at zero.
func (e *Engine) releaseSource(id engine.SourceID) {
	s, ok := e.sources[id]
	if !ok {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	delete(e.sources, id)
	for ch, bound := range e.channels {
		if bound == id {
			delete(e.channels, ch)
		}
	}
	for _, f := range s.filters {
		e.releaseSource(f)
	}
	s.filters = nil
}

func (e *Engine) source(id engine.SourceID) *source {
	return e.sources[id]
}

func (e *Engine) SourceName(src engine.SourceID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		return s.name
	}
	return ""
}

func (e *Engine) SourceSetName(src engine.SourceID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.name = name
		if s.scene != 0 {
			if sc, ok := e.scenes[s.scene]; ok {
				sc.name = name
			}
		}
	}
}

func (e *Engine) SourceType(src engine.SourceID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		return s.typ
	}
	return ""
}

func (e *Engine) SourceSettings(src engine.SourceID) *engine.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		return s.settings.Clone()
	}
	return nil
}

func (e *Engine) SourceUpdate(src engine.SourceID, settings *engine.Data) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil && settings != nil {
		s.settings.Merge(settings)
	}
}

func (e *Engine) SourceSize(src engine.SourceID) (uint32, uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sourceSize(src)
}

func (e *Engine) sourceSize(src engine.SourceID) (uint32, uint32) {
	s := e.source(src)
	if s == nil {
		return 0, 0
	}
	if s.scene != 0 {
		if e.videoSet {
			return e.video.BaseWidth, e.video.BaseHeight
		}
		return 0, 0
	}
	t, ok := e.types[s.typ]
	if !ok || t.size == nil {
		return 0, 0
	}
	return t.size(s.settings)
}

func (e *Engine) SourceIncShowing(src engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.showing++
	}
}

func (e *Engine) SourceDecShowing(src engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil && s.showing > 0 {
		s.showing--
	}
}

func (e *Engine) SourceEnabled(src engine.SourceID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		return s.enabled
	}
	return false
}

func (e *Engine) SourceSetEnabled(src engine.SourceID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.enabled = enabled
	}
}

func (e *Engine) SourceSetVolume(src engine.SourceID, volume float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.volume = volume
	}
}

func (e *Engine) SourceSetMuted(src engine.SourceID, muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.muted = muted
	}
}

func (e *Engine) SourceSetMonitoring(src engine.SourceID, mode engine.Monitoring) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.monitoring = mode
	}
}

func (e *Engine) SourceSetAudioMixers(src engine.SourceID, mixers uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.source(src); s != nil {
		s.mixers = mixers
	}
}

func (e *Engine) SourceFilters(src engine.SourceID) []engine.SourceRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.source(src)
	if s == nil {
		return nil
	}
	out := make([]engine.SourceRef, 0, len(s.filters))
	for _, f := range s.filters {
		out = append(out, engine.SourceRef(f))
	}
	return out
}

func (e *Engine) SourceFilterByName(src engine.SourceID, name string) engine.SourceRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.source(src)
	if s == nil {
		return 0
	}
	for _, f := range s.filters {
		if fs := e.source(f); fs != nil && fs.name == name {
			return engine.SourceRef(f)
		}
	}
	return 0
}

func (e *Engine) SourceFilterAdd(src, filter engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, f := e.source(src), e.source(filter)
	if s == nil || f == nil || !f.filter || src == filter {
		return
	}
	for _, existing := range s.filters {
		if existing == filter {
			return
		}
	}
	f.refs++
	s.filters = append(s.filters, filter)
}

func (e *Engine) SourceFilterRemove(src, filter engine.SourceID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.source(src)
	if s == nil {
		return
	}
	for i, existing := range s.filters {
		if existing == filter {
			s.filters = append(s.filters[:i], s.filters[i+1:]...)
			e.releaseSource(filter)
			return
		}
	}
}
