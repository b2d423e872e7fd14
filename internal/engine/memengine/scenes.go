package memengine

import (
	"revostream/internal/engine"
)

type scene struct {
	id     engine.SceneID
	name   string
	source engine.SourceID
	items  []engine.ItemID
}

type item struct {
	id        engine.ItemID
	scene     engine.SceneID
	source    engine.SourceID
	visible   bool
	transform engine.Transform
}

func (e *Engine) SceneCreate(name string) engine.SceneID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lookupType("scene", kindScene) == nil {
		return 0
	}
	sc := &scene{id: engine.SceneID(e.id()), name: name}
	src := e.newSource("scene", name, nil, nil)
	src.scene = sc.id
	sc.source = src.id
	e.scenes[sc.id] = sc
	return sc.id
}

func (e *Engine) SceneRelease(id engine.SceneID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc, ok := e.scenes[id]
	if !ok {
		return
	}
	for _, itemID := range append([]engine.ItemID(nil), sc.items...) {
		e.removeItem(itemID)
	}
	delete(e.scenes, id)
	if src, ok := e.sources[sc.source]; ok {
		src.refs = 1
		e.releaseSource(sc.source)
	}
}

func (e *Engine) SceneSource(id engine.SceneID) engine.SourceRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sc, ok := e.scenes[id]; ok {
		return engine.SourceRef(sc.source)
	}
	return 0
}

// SceneItems lists items bottom to top.
func (e *Engine) SceneItems(id engine.SceneID) []engine.ItemRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc, ok := e.scenes[id]
	if !ok {
		return nil
	}
	out := make([]engine.ItemRef, 0, len(sc.items))
	for _, it := range sc.items {
		out = append(out, engine.ItemRef(it))
	}
	return out
}

func (e *Engine) SceneAdd(id engine.SceneID, src engine.SourceID) engine.ItemID {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc, ok := e.scenes[id]
	s := e.source(src)
	if !ok || s == nil || s.filter || src == sc.source {
		return 0
	}
	it := &item{
		id:        engine.ItemID(e.id()),
		scene:     id,
		source:    src,
		visible:   true,
		transform: engine.Transform{Scale: engine.Vec2{X: 1, Y: 1}},
	}
	s.refs++
	e.items[it.id] = it
	sc.items = append(sc.items, it.id)
	return it.id
}

func (e *Engine) SceneItemRemove(id engine.ItemID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeItem(id)
}

func (e *Engine) removeItem(id engine.ItemID) {
	it, ok := e.items[id]
	if !ok {
		return
	}
	delete(e.items, id)
	if sc, ok := e.scenes[it.scene]; ok {
		for i, existing := range sc.items {
			if existing == id {
				sc.items = append(sc.items[:i], sc.items[i+1:]...)
				break
			}
		}
	}
	e.releaseSource(it.source)
}

// SceneReorderItems replaces the bottom-to-top order. order must be a
// permutation of the scene's items.
func (e *Engine) SceneReorderItems(id engine.SceneID, order []engine.ItemID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	sc, ok := e.scenes[id]
	if !ok || e.failReorder || len(order) != len(sc.items) {
		return false
	}
	present := make(map[engine.ItemID]bool, len(sc.items))
	for _, it := range sc.items {
		present[it] = true
	}
	for _, it := range order {
		if !present[it] {
			return false
		}
		delete(present, it)
	}
	sc.items = append([]engine.ItemID(nil), order...)
	return true
}

func (e *Engine) ItemSource(id engine.ItemID) engine.SourceRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[id]; ok {
		return engine.SourceRef(it.source)
	}
	return 0
}

func (e *Engine) ItemVisible(id engine.ItemID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[id]; ok {
		return it.visible
	}
	return false
}

func (e *Engine) ItemSetVisible(id engine.ItemID, visible bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[id]; ok {
		it.visible = visible
	}
}

func (e *Engine) ItemTransform(id engine.ItemID) engine.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[id]; ok {
		return it.transform
	}
	return engine.Transform{}
}

func (e *Engine) ItemSetTransform(id engine.ItemID, t engine.Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if it, ok := e.items[id]; ok {
		it.transform = t
	}
}

func (e *Engine) ItemSetOrder(id engine.ItemID, move engine.OrderMovement) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, ok := e.items[id]
	if !ok {
		return
	}
	sc, ok := e.scenes[it.scene]
	if !ok {
		return
	}
	idx := -1
	for i, existing := range sc.items {
		if existing == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	target := idx
	switch move {
	case engine.OrderMoveUp:
		target = idx + 1
	case engine.OrderMoveDown:
		target = idx - 1
	case engine.OrderMoveTop:
		target = len(sc.items) - 1
	case engine.OrderMoveBottom:
		target = 0
	}
	if target < 0 || target >= len(sc.items) || target == idx {
		return
	}
	items := append(sc.items[:idx:idx], sc.items[idx+1:]...)
	items = append(items[:target], append([]engine.ItemID{id}, items[target:]...)...)
	sc.items = items
}
