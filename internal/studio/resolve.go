package studio

import (
	"fmt"

	"golang.org/x/text/cases"

	"revostream/internal/engine"
	"revostream/internal/services"
)

// Reserved item ids for the template slots.
const (
	AccentID = "accent"
	TitleID  = "title"
)

type itemKeyKind int

const (
	keyAccent itemKeyKind = iota
	keyTitle
	keyCustom
)

// itemKey is a parsed item identifier. A custom key that is not registered
// falls back to a scan of the scene by source name.
type itemKey struct {
	kind itemKeyKind
	id   string
}

func parseItemKey(id string) itemKey {
	switch id {
	case AccentID:
		return itemKey{kind: keyAccent, id: id}
	case TitleID:
		return itemKey{kind: keyTitle, id: id}
	default:
		return itemKey{kind: keyCustom, id: id}
	}
}

// resolve maps id to an item of s. found is false when id names nothing; a
// reserved id always resolves, possibly to an empty slot.
func (s *sceneState) resolve(e engine.Engine, id string) (item engine.ItemRef, found bool) {
	key := parseItemKey(id)
	switch key.kind {
	case keyAccent:
		return s.accent.Borrow(), true
	case keyTitle:
		return s.title.Borrow(), true
	}
	if it, ok := s.custom[key.id]; ok {
		return it.Borrow(), true
	}
	item = s.findByName(e, key.id)
	return item, !item.IsZero()
}

// findByName scans the scene for a source named name, preferring an exact
// match over a case-folded one.
func (s *sceneState) findByName(e engine.Engine, name string) engine.ItemRef {
	if s.scene.IsZero() || name == "" {
		return 0
	}
	items := e.SceneItems(s.scene.ID())
	fold := cases.Fold()
	folded := fold.String(name)
	var loose engine.ItemRef
	for _, ref := range items {
		src := e.ItemSource(ref.ID())
		if src.IsZero() {
			continue
		}
		srcName := e.SourceName(src.ID())
		if srcName == name {
			return ref
		}
		if loose.IsZero() && fold.String(srcName) == folded {
			loose = ref
		}
	}
	return loose
}

// itemID is the inverse of resolve: the reserved or custom id owning item,
// else the source name. Empty when the item has neither.
func (s *sceneState) itemID(e engine.Engine, item engine.ItemRef) string {
	if item.IsZero() {
		return ""
	}
	switch item.ID() {
	case s.accent.ID():
		return AccentID
	case s.title.ID():
		return TitleID
	}
	for _, id := range sortedItemKeys(s.custom) {
		if s.custom[id].ID() == item.ID() {
			return id
		}
	}
	src := e.ItemSource(item.ID())
	if src.IsZero() {
		return ""
	}
	return e.SourceName(src.ID())
}

// displayID is itemID with a placeholder for anonymous items.
func (s *sceneState) displayID(e engine.Engine, item engine.ItemRef) string {
	if id := s.itemID(e, item); id != "" {
		return id
	}
	return fmt.Sprintf("item-%d", item.ID())
}

// lookup is resolve with the caller-facing errors.
func (s *sceneState) lookup(e engine.Engine, id string) (engine.ItemRef, error) {
	item, found := s.resolve(e, id)
	if !found {
		return 0, services.Fail(services.ErrNotFound, "unknown source id")
	}
	if item.IsZero() {
		return 0, services.Fail(services.ErrNotFound, "source not available")
	}
	return item, nil
}
