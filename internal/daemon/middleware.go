package daemon

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"revostream/internal/logging"
	"revostream/internal/services"
)

const (
	headerRequestID     = "X-Request-ID"
	headerCorrelationID = "X-Correlation-ID"
)

// requestContext attaches a request id, taken from X-Request-ID or freshly
// generated, and an optional correlation id to the request context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx := services.WithRequestID(r.Context(), id)
		if corr := strings.TrimSpace(r.Header.Get(headerCorrelationID)); corr != "" {
			ctx = services.WithCorrelationID(ctx, corr)
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestObserver logs each request and records it in m. The wrapped writer
// keeps http.Hijacker so websocket upgrades pass through.
func requestObserver(logger *slog.Logger, m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrap := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrap, r)

			status := wrap.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			if m != nil {
				m.ObserveRequest(route, r.Method, status, elapsed)
			}

			log := logging.WithContext(r.Context(), logger)
			attrs := logging.Args(
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", status),
				logging.Int64("duration_ms", elapsed.Milliseconds()),
				logging.Int("size", wrap.BytesWritten()),
			)
			if status >= http.StatusInternalServerError {
				log.Warn("request", attrs...)
				return
			}
			log.Debug("request", attrs...)
		})
	}
}
