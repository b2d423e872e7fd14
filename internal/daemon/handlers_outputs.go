package daemon

import (
	"net/http"
	"strconv"
	"strings"

	"revostream/internal/api"
	"revostream/internal/studio"
)

func (s *apiServer) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	var req api.RecordingRequest
	if !s.decode(w, r, &req) {
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		path = s.daemon.cfg.Recording.Path
	}
	msg, err := s.daemon.runtime.StartRecording(r.Context(), path)
	s.respond(w, r, "start_recording", msg, err)
}

func (s *apiServer) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.StopRecording(r.Context())
	s.respond(w, r, "stop_recording", msg, err)
}

func (s *apiServer) handleStartStreaming(w http.ResponseWriter, r *http.Request) {
	var req api.StreamingRequest
	if !s.decode(w, r, &req) {
		return
	}
	target := strings.TrimSpace(req.URL)
	if target == "" {
		target = s.daemon.cfg.StreamTarget()
	}
	msg, err := s.daemon.runtime.StartStreaming(r.Context(), target)
	s.respond(w, r, "start_streaming", msg, err)
}

func (s *apiServer) handleStopStreaming(w http.ResponseWriter, r *http.Request) {
	msg, err := s.daemon.runtime.StopStreaming(r.Context())
	s.respond(w, r, "stop_streaming", msg, err)
}

func (s *apiServer) handleEncoderPreference(w http.ResponseWriter, r *http.Request) {
	var req api.EncoderPreferenceRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.runtime.SetEncoderPreference(r.Context(), req.Preference)
	s.respond(w, r, "set_encoder_preference", msg, err)
}

func (s *apiServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := studio.ScreenshotRequest{
		Source: strings.TrimSpace(query.Get("source")),
		Width:  parseDimension(query.Get("width")),
		Height: parseDimension(query.Get("height")),
	}
	dataURL, err := s.daemon.runtime.Screenshot(r.Context(), req)
	s.daemon.metrics.ObserveOperation("screenshot", err)
	if err != nil {
		s.fail(w, r, "screenshot", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PreviewResponse{DataURL: dataURL})
}

// parseDimension returns 0, meaning the default size, for anything that is
// not a positive integer.
func parseDimension(value string) uint32 {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}
