package collection

import (
	"context"
	"log/slog"

	"revostream/internal/logging"
	"revostream/internal/studio"
)

// Service exports and imports scene collections against a live runtime.
type Service struct {
	rt      *studio.Runtime
	logger  *slog.Logger
	journal studio.Journal
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logging.NewComponentLogger(logger, "collection")
	}
}

// WithJournal records imports and file exports.
func WithJournal(j studio.Journal) Option {
	return func(s *Service) {
		s.journal = j
	}
}

// New returns a Service bound to rt.
func New(rt *studio.Runtime, opts ...Option) *Service {
	s := &Service{
		rt:     rt,
		logger: logging.NewComponentLogger(nil, "collection"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(ctx context.Context, action string, detail map[string]any) {
	if s.journal == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			s.logger.Debug("journal record dropped", logging.String("action", action), logging.Any("panic", p))
		}
	}()
	s.journal.Record(ctx, action, detail)
}
