package daemon

import (
	"net/http"

	"revostream/internal/api"
	"revostream/internal/studio"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.daemon.metrics.SetOutputs(status.Initialized, status.Recording, status.Streaming)
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleRuntimeStart(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.Start(r.Context(), studio.StartOptionsFromConfig(s.daemon.cfg))
	s.respond(w, r, "start", msg, err)
}

func (s *apiServer) handleRuntimeShutdown(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.Shutdown(r.Context())
	s.respond(w, r, "shutdown", msg, err)
}

func (s *apiServer) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.daemon.runtime.ListScenes(r.Context())
	if err != nil {
		s.fail(w, r, "list_scenes", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SceneListResponse{Scenes: api.FromScenes(scenes)})
}

func (s *apiServer) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var req api.SceneRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.CreateScene(r.Context(), req.Name)
	s.respond(w, r, "create_scene", msg, err)
}

func (s *apiServer) handleCurrentScene(w http.ResponseWriter, r *http.Request) {
	name, err := s.daemon.runtime.CurrentScene(r.Context())
	if err != nil {
		s.fail(w, r, "current_scene", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SceneRequest{Name: name})
}

func (s *apiServer) handleSetCurrentScene(w http.ResponseWriter, r *http.Request) {
	var req api.SceneRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.SetCurrentScene(r.Context(), req.Name)
	s.respond(w, r, "set_current_scene", msg, err)
}

func (s *apiServer) handleSceneResolution(w http.ResponseWriter, r *http.Request) {
	res, err := s.daemon.runtime.SceneResolution(r.Context())
	if err != nil {
		s.fail(w, r, "scene_resolution", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ResolutionResponse{Resolution: res})
}

func (s *apiServer) handleRenameScene(w http.ResponseWriter, r *http.Request) {
	var req api.SceneRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.RenameScene(r.Context(), pathParam(r, "name"), req.Name)
	s.respond(w, r, "rename_scene", msg, err)
}

func (s *apiServer) handleRemoveScene(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.RemoveScene(r.Context(), pathParam(r, "name"))
	s.respond(w, r, "remove_scene", msg, err)
}

func (s *apiServer) handleSceneLock(w http.ResponseWriter, r *http.Request) {
	var req api.LockRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.SetSceneLock(r.Context(), pathParam(r, "name"), req.Locked)
	s.respond(w, r, "set_scene_lock", msg, err)
}

func (s *apiServer) handleSceneOrder(w http.ResponseWriter, r *http.Request) {
	var req api.OrderRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.ReorderScene(r.Context(), pathParam(r, "name"), req.Index)
	s.respond(w, r, "reorder_scene", msg, err)
}
