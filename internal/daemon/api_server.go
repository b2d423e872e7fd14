package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"revostream/internal/api"
	"revostream/internal/config"
	"revostream/internal/logging"
	"revostream/internal/services"
)

const maxBodyBytes = 32 << 20

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	baseCtx  context.Context
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}
	srv := &apiServer{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api-server"),
		daemon:  d,
		baseCtx: context.Background(),
	}
	srv.handler = srv.routes(strings.TrimSpace(cfg.Paths.APIToken))
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) routes(token string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestContext)
	r.Use(requestObserver(s.logger, s.daemon.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.daemon.metrics.Handler(func() { s.refreshGauges(r.Context()) }).ServeHTTP(w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(token))

		r.Get("/status", s.handleStatus)
		r.Post("/runtime/start", s.handleRuntimeStart)
		r.Post("/runtime/shutdown", s.handleRuntimeShutdown)

		r.Route("/scenes", func(r chi.Router) {
			r.Get("/", s.handleListScenes)
			r.Post("/", s.handleCreateScene)
			r.Get("/current", s.handleCurrentScene)
			r.Put("/current", s.handleSetCurrentScene)
			r.Get("/resolution", s.handleSceneResolution)
			r.Patch("/{name}", s.handleRenameScene)
			r.Delete("/{name}", s.handleRemoveScene)
			r.Put("/{name}/lock", s.handleSceneLock)
			r.Put("/{name}/order", s.handleSceneOrder)
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", s.handleListSources)
			r.Post("/", s.handleCreateSource)
			r.Get("/{id}", s.handleSourceSettings)
			r.Patch("/{id}", s.handleUpdateSource)
			r.Delete("/{id}", s.handleRemoveSource)
			r.Put("/{id}/visible", s.handleSourceVisible)
			r.Post("/{id}/move", s.handleMoveSource)
			r.Put("/{id}/order", s.handleSourceOrder)
			r.Get("/{id}/filters", s.handleListFilters)
			r.Put("/{id}/filters", s.handleSetFilters)
		})
		r.Get("/source-types", s.handleSourceTypes)
		r.Get("/source-types/{type}/properties", s.handleSourceProperties)

		r.Post("/recording", s.handleStartRecording)
		r.Delete("/recording", s.handleStopRecording)
		r.Post("/streaming", s.handleStartStreaming)
		r.Delete("/streaming", s.handleStopStreaming)
		r.Put("/encoder-preference", s.handleEncoderPreference)
		r.Get("/preview", s.handlePreview)

		r.Route("/collection", func(r chi.Router) {
			r.Get("/", s.handleExportCollection)
			r.Post("/import", s.handleImportCollection)
			r.Post("/export", s.handleExportCollectionFile)
			r.Post("/validate", s.handleValidateCollection)
			r.Get("/schema", s.handleCollectionSchema)
		})

		r.Get("/devices/video", s.handleVideoDevices)
		r.Get("/devices/audio", s.handleAudioDevices)

		r.Get("/journal", s.handleJournal)
		r.Get("/events/ws", s.handleEvents)
		r.Get("/logs", s.handleLogs)
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.baseCtx = ctx
	server := s.server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	// http.Server cannot Serve again after Shutdown.
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.server.ReadHeaderTimeout,
		ReadTimeout:       s.server.ReadTimeout,
		WriteTimeout:      s.server.WriteTimeout,
		IdleTimeout:       s.server.IdleTimeout,
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// streamContext is the context long-lived streams watch. It ends when the
// daemon stops, unlike hijacked request contexts.
func (s *apiServer) streamContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *apiServer) refreshGauges(ctx context.Context) {
	status, err := s.daemon.runtime.Status(ctx)
	if err != nil {
		return
	}
	s.daemon.metrics.SetOutputs(status.Initialized, status.Recording, status.Streaming)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.daemon.runtime.Poisoned() {
		s.writeError(w, http.StatusInternalServerError, "state poisoned")
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: "ok"})
}

// respond writes the outcome of a runtime operation as a MessageResponse or
// an ErrorResponse whose status follows the error marker.
func (s *apiServer) respond(w http.ResponseWriter, r *http.Request, op, msg string, err error) {
	s.daemon.metrics.ObserveOperation(op, err)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: msg})
}

func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := services.HTTPStatus(err)
	log := logging.WithContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(log, "api operation failed", "api_operation_failed",
			logging.String(logging.FieldOperation, op),
			logging.Int("status", status),
			logging.Error(err),
		)
	} else {
		log.Debug("api operation rejected",
			logging.String(logging.FieldOperation, op),
			logging.Int("status", status),
			logging.Error(err),
		)
	}
	s.writeError(w, status, err.Error())
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *apiServer) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return nil, false
	}
	return raw, true
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeRawJSON(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

// pathParam returns a decoded route parameter. Names may contain escaped
// slashes, which chi leaves encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
