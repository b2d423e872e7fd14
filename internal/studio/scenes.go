package studio

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"revostream/internal/config"
	"revostream/internal/logging"
	"revostream/internal/services"
)

// SceneInfo describes one scene in list order.
type SceneInfo struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Locked bool   `json:"locked"`
}

// ListScenes returns the scenes in user order followed by any scene missing
// from the order. It is empty before Start.
func (r *Runtime) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	var out []SceneInfo
	err := r.locked(func(st *state) error {
		if !st.initialized {
			return nil
		}
		for _, name := range st.sceneNames() {
			out = append(out, SceneInfo{
				Name:   name,
				Active: name == st.current,
				Locked: st.locked[name],
			})
		}
		return nil
	})
	return out, err
}

// CurrentScene returns the showing scene name, empty when none.
func (r *Runtime) CurrentScene(ctx context.Context) (string, error) {
	var name string
	err := r.locked(func(st *state) error {
		name = st.current
		return nil
	})
	return name, err
}

// SetCurrentScene switches the showing scene.
func (r *Runtime) SetCurrentScene(ctx context.Context, name string) (string, error) {
	return r.message(ctx, "set_current_scene", func(st *state) (string, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return "", services.Fail(services.ErrValidation, "scene name required")
		}
		if err := st.switchTo(name); err != nil {
			return "", err
		}
		r.queue(ctx, "set_current_scene", map[string]any{"name": name})
		return "active scene: " + name, nil
	})
}

// CreateScene adds an empty scene at the end of the order and shows it.
func (r *Runtime) CreateScene(ctx context.Context, name string) (string, error) {
	return r.message(ctx, "create_scene", func(st *state) (string, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return "", services.Fail(services.ErrValidation, "scene name required")
		}
		if _, ok := st.scenes[name]; ok {
			return "", services.Fail(services.ErrConflict, "scene already exists")
		}
		if _, ok := st.addScene(name); !ok {
			r.engineWarn(ctx, "create_scene", "scene creation failed", logging.String("scene", name))
			return "", services.Fail(services.ErrEngine, "failed to create scene")
		}
		if err := st.switchTo(name); err != nil {
			return "", err
		}
		r.queue(ctx, "create_scene", map[string]any{"name": name})
		return "created " + name, nil
	})
}

// RenameScene renames an unlocked scene, carrying its order slot and current
// marker over to the new name.
func (r *Runtime) RenameScene(ctx context.Context, oldName, newName string) (string, error) {
	return r.message(ctx, "rename_scene", func(st *state) (string, error) {
		oldName = strings.TrimSpace(oldName)
		newName = strings.TrimSpace(newName)
		if oldName == "" || newName == "" {
			return "", services.Fail(services.ErrValidation, "scene name required")
		}
		if st.locked[oldName] {
			return "", services.Fail(services.ErrConflict, "scene is locked")
		}
		if _, ok := st.scenes[newName]; ok {
			return "", services.Fail(services.ErrConflict, "scene name already exists")
		}
		ss, ok := st.scenes[oldName]
		if !ok {
			return "", services.Fail(services.ErrNotFound, "scene not found")
		}
		if !ss.source.IsZero() {
			st.eng.SourceSetName(ss.source.ID(), newName)
		}
		delete(st.scenes, oldName)
		ss.name = newName
		st.scenes[newName] = ss
		if st.current == oldName {
			st.current = newName
		}
		if i := slices.Index(st.order, oldName); i >= 0 {
			st.order[i] = newName
		}
		r.queue(ctx, "rename_scene", map[string]any{"from": oldName, "to": newName})
		return fmt.Sprintf("renamed %s to %s", oldName, newName), nil
	})
}

// RemoveScene tears a scene down. When it was showing, the first remaining
// scene by name is shown instead.
func (r *Runtime) RemoveScene(ctx context.Context, name string) (string, error) {
	return r.message(ctx, "remove_scene", func(st *state) (string, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return "", services.Fail(services.ErrValidation, "scene name required")
		}
		if st.locked[name] {
			return "", services.Fail(services.ErrConflict, "scene is locked")
		}
		if len(st.scenes) <= 1 {
			return "", services.Fail(services.ErrConflict, "cannot remove last scene")
		}
		ss, ok := st.scenes[name]
		if !ok {
			return "", services.Fail(services.ErrNotFound, "scene not found")
		}
		wasCurrent := st.current == name
		if wasCurrent {
			if !st.view.IsZero() {
				st.eng.ViewSetSource(st.view.ID(), 0, 0)
			}
			st.eng.SetOutputSource(0, 0)
		}
		ss.teardown(st.eng, wasCurrent)
		delete(st.scenes, name)
		delete(st.locked, name)
		st.order = slices.DeleteFunc(st.order, func(n string) bool { return n == name })
		if wasCurrent {
			st.current = ""
			if next := promotionCandidate(st); next != "" {
				if err := st.switchTo(next); err != nil {
					return "", err
				}
			}
		}
		r.queue(ctx, "remove_scene", map[string]any{"name": name})
		return "removed " + name, nil
	})
}

// promotionCandidate is the scene shown after the current one is removed.
func promotionCandidate(st *state) string {
	names := make([]string, 0, len(st.scenes))
	for n := range st.scenes {
		names = append(names, n)
	}
	slices.Sort(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// SetSceneLock marks a scene exempt from rename and remove.
func (r *Runtime) SetSceneLock(ctx context.Context, name string, locked bool) (string, error) {
	return r.message(ctx, "set_scene_lock", func(st *state) (string, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return "", services.Fail(services.ErrValidation, "scene name required")
		}
		if _, ok := st.scenes[name]; !ok {
			return "", services.Fail(services.ErrNotFound, "scene not found")
		}
		if locked {
			st.locked[name] = true
		} else {
			delete(st.locked, name)
		}
		r.queue(ctx, "set_scene_lock", map[string]any{"name": name, "locked": locked})
		return fmt.Sprintf("scene %s lock=%t", name, locked), nil
	})
}

// ReorderScene moves name within the user order.
func (r *Runtime) ReorderScene(ctx context.Context, name string, to int) (string, error) {
	return r.message(ctx, "reorder_scene", func(st *state) (string, error) {
		name = strings.TrimSpace(name)
		if _, ok := st.scenes[name]; !ok {
			return "", services.Fail(services.ErrNotFound, "scene not found")
		}
		st.order = st.sceneNames()
		from := slices.Index(st.order, name)
		st.order = moveIndex(st.order, from, to)
		r.queue(ctx, "reorder_scene", map[string]any{"name": name, "index": to})
		return "reordered", nil
	})
}

// SceneResolution returns the canvas size as WxH: the live engine size, else
// the configured one, else 1920x1080.
func (r *Runtime) SceneResolution(ctx context.Context) (string, error) {
	var res string
	err := r.locked(func(st *state) error {
		res = st.sceneResolution()
		return nil
	})
	return res, err
}

func (st *state) sceneResolution() string {
	if st.initialized {
		if info, ok := st.eng.VideoInfo(); ok && info.BaseWidth > 0 && info.BaseHeight > 0 {
			return fmt.Sprintf("%dx%d", info.BaseWidth, info.BaseHeight)
		}
	}
	if _, _, ok := config.ParseResolution(st.resolution); ok {
		return st.resolution
	}
	return "1920x1080"
}
