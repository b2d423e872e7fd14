package daemon

import (
	"net/http"

	"revostream/internal/api"
)

func (s *apiServer) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.daemon.runtime.ListSources(r.Context())
	if err != nil {
		s.fail(w, r, "list_sources", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SourceListResponse{Sources: api.FromSources(sources)})
}

func (s *apiServer) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.CreateSource(r.Context(), api.ToSourceCreate(req))
	s.respond(w, r, "create_source", msg, err)
}

func (s *apiServer) handleSourceSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.daemon.runtime.GetSourceSettings(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.fail(w, r, "source_settings", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSourceSettings(settings))
}

func (s *apiServer) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateSourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.UpdateSource(r.Context(), api.ToSourceUpdate(pathParam(r, "id"), req))
	s.respond(w, r, "update_source", msg, err)
}

func (s *apiServer) handleRemoveSource(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.RemoveSource(r.Context(), pathParam(r, "id"))
	s.respond(w, r, "remove_source", msg, err)
}

func (s *apiServer) handleSourceVisible(w http.ResponseWriter, r *http.Request) {
	var req api.VisibleRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	err := s.daemon.runtime.SetSourceVisible(r.Context(), id, req.Visible)
	msg := id + " hidden"
	if req.Visible {
		msg = id + " visible"
	}
	s.respond(w, r, "set_source_visible", msg, err)
}

func (s *apiServer) handleMoveSource(w http.ResponseWriter, r *http.Request) {
	var req api.MoveRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	err := s.daemon.runtime.MoveSource(r.Context(), id, req.Direction)
	s.respond(w, r, "move_source", "moved "+id+" "+req.Direction, err)
}

func (s *apiServer) handleSourceOrder(w http.ResponseWriter, r *http.Request) {
	var req api.OrderRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	err := s.daemon.runtime.ReorderSource(r.Context(), id, req.Index)
	s.respond(w, r, "reorder_source", "reordered "+id, err)
}

func (s *apiServer) handleListFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.daemon.runtime.ListFilters(r.Context(), pathParam(r, "id"))
	if err != nil {
		s.fail(w, r, "list_filters", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FiltersPayload{Filters: api.FromFilters(filters)})
}

func (s *apiServer) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req api.FiltersPayload
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.SetSourceFilters(r.Context(), pathParam(r, "id"), api.ToFilterSpecs(req.Filters))
	s.respond(w, r, "set_source_filters", msg, err)
}

func (s *apiServer) handleSourceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.daemon.runtime.ListSourceTypes(r.Context())
	if err != nil {
		s.fail(w, r, "list_source_types", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.SourceTypeListResponse{Types: api.FromSourceTypes(types)})
}

func (s *apiServer) handleSourceProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.daemon.runtime.SourceProperties(r.Context(), pathParam(r, "type"))
	if err != nil {
		s.fail(w, r, "source_properties", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PropertyListResponse{Properties: api.FromProperties(props)})
}
