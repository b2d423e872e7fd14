package memengine

import (
	"revostream/internal/engine"
)

// SaveSources describes every live input and scene in creation order, in the
// layout of a native scene-collection "sources" array.
func (e *Engine) SaveSources() []*engine.Data {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*engine.Data
	for _, id := range sortedKeys(e.sources) {
		s := e.sources[id]
		if s.filter {
			continue
		}
		out = append(out, e.saveSource(s))
	}
	return out
}

func (e *Engine) saveSource(s *source) *engine.Data {
	d := engine.NewData()
	d.SetString("name", s.name)
	d.SetString("id", s.typ)
	d.SetString("versioned_id", s.typ)
	if s.scene != 0 {
		d.SetObject("settings", e.saveSceneSettings(s.scene))
	} else {
		settings := engine.NewData()
		settings.Merge(s.settings)
		d.SetObject("settings", settings)
	}
	d.SetBool("enabled", s.enabled)
	d.SetBool("muted", s.muted)
	d.SetDouble("volume", s.volume)
	d.SetInt("mixers", int64(s.mixers))
	d.SetInt("monitoring_type", int64(s.monitoring))
	if len(s.filters) > 0 {
		filters := make([]*engine.Data, 0, len(s.filters))
		for _, fid := range s.filters {
			f := e.sources[fid]
			if f == nil {
				continue
			}
			fd := engine.NewData()
			fd.SetString("name", f.name)
			fd.SetString("id", f.typ)
			fd.SetBool("enabled", f.enabled)
			settings := engine.NewData()
			settings.Merge(f.settings)
			fd.SetObject("settings", settings)
			filters = append(filters, fd)
		}
		d.SetArray("filters", filters)
	}
	return d
}

func (e *Engine) saveSceneSettings(id engine.SceneID) *engine.Data {
	settings := engine.NewData()
	sc, ok := e.scenes[id]
	if !ok {
		settings.SetArray("items", nil)
		return settings
	}
	items := make([]*engine.Data, 0, len(sc.items))
	for _, itemID := range sc.items {
		it := e.items[itemID]
		if it == nil {
			continue
		}
		name := ""
		if src := e.sources[it.source]; src != nil {
			name = src.name
		}
		t := it.transform
		d := engine.NewData()
		d.SetString("name", name)
		d.SetInt("id", int64(it.id))
		d.SetBool("visible", it.visible)
		d.SetObject("pos", vec(t.Pos.X, t.Pos.Y))
		d.SetObject("scale", vec(t.Scale.X, t.Scale.Y))
		d.SetDouble("rot", t.Rot)
		d.SetObject("bounds", vec(0, 0))
		d.SetInt("crop_left", int64(t.Crop.Left))
		d.SetInt("crop_top", int64(t.Crop.Top))
		d.SetInt("crop_right", int64(t.Crop.Right))
		d.SetInt("crop_bottom", int64(t.Crop.Bottom))
		items = append(items, d)
	}
	settings.SetInt("id_counter", int64(len(items)))
	settings.SetArray("items", items)
	return settings
}

func vec(x, y float64) *engine.Data {
	d := engine.NewData()
	d.SetDouble("x", x)
	d.SetDouble("y", y)
	return d
}
