package studio

import (
	"context"
	"log/slog"
	"sync"

	"revostream/internal/engine"
	"revostream/internal/logging"
	"revostream/internal/services"
)

// ErrPoisoned is returned by every call after an operation panicked while
// holding the runtime lock. The process must be restarted.
var ErrPoisoned = services.Fail(services.ErrPoisoned, "state poisoned")

var errNotInitialized = services.Fail(services.ErrNotInitialized, "engine not initialized")

// Journal receives (action, detail) records for mutating operations.
// Implementations must not block and must never fail the caller.
type Journal interface {
	Record(ctx context.Context, action string, detail map[string]any)
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logging.NewComponentLogger(logger, "studio")
	}
}

// WithJournal sets the action journal.
func WithJournal(j Journal) Option {
	return func(r *Runtime) {
		r.journal = j
	}
}

// Runtime owns the live engine object graph. Every exported method holds the
// runtime lock for its whole duration, including every engine call.
type Runtime struct {
	mu       sync.Mutex
	poisoned bool
	st       *state
	pending  []journalRecord

	logger  *slog.Logger
	journal Journal
}

// New returns an idle runtime driving eng.
func New(eng engine.Engine, opts ...Option) *Runtime {
	r := &Runtime{
		st:     newState(eng),
		logger: logging.NewComponentLogger(nil, "studio"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type journalRecord struct {
	ctx    context.Context
	action string
	detail map[string]any
}

// locked runs fn with exclusive access to the state. A panic inside fn marks
// the runtime poisoned before it propagates. Actions recorded by fn reach the
// journal after the lock is released.
func (r *Runtime) locked(fn func(st *state) error) error {
	pending, err := r.run(fn)
	for _, rec := range pending {
		r.emit(rec)
	}
	return err
}

func (r *Runtime) run(fn func(st *state) error) ([]journalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		return nil, ErrPoisoned
	}
	defer func() {
		if p := recover(); p != nil {
			r.poisoned = true
			r.pending = nil
			panic(p)
		}
	}()
	err := fn(r.st)
	pending := r.pending
	r.pending = nil
	return pending, err
}

// initialized is locked with the engine-not-initialized precondition.
func (r *Runtime) initialized(fn func(st *state) error) error {
	return r.locked(func(st *state) error {
		if !st.initialized {
			return errNotInitialized
		}
		return fn(st)
	})
}

// message runs fn under the initialized precondition and returns its message.
func (r *Runtime) message(ctx context.Context, op string, fn func(st *state) (string, error)) (string, error) {
	var msg string
	err := r.initialized(func(st *state) error {
		var err error
		msg, err = fn(st)
		return err
	})
	r.logResult(ctx, op, msg, err)
	return msg, err
}

func (r *Runtime) logResult(ctx context.Context, op, msg string, err error) {
	logger := logging.WithContext(ctx, r.logger)
	if err != nil {
		logger.Debug("runtime operation rejected",
			logging.String(logging.FieldOperation, op),
			logging.Error(err),
		)
		return
	}
	logger.Debug("runtime operation",
		logging.String(logging.FieldOperation, op),
		logging.String("result", msg),
	)
}

// engineWarn logs an engine-call failure.
func (r *Runtime) engineWarn(ctx context.Context, op, msg string, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.String(logging.FieldOperation, op),
		logging.String(logging.FieldErrorHint, "check engine type availability and settings"),
		logging.String(logging.FieldImpact, "operation failed"),
	)
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), msg, "engine_call_failed", attrs...)
}

// queue holds an action for the journal until locked releases the lock. It
// must be called with the lock held.
func (r *Runtime) queue(ctx context.Context, action string, detail map[string]any) {
	if r.journal == nil {
		return
	}
	r.pending = append(r.pending, journalRecord{ctx: ctx, action: action, detail: detail})
}

// record forwards an action to the journal immediately. It must not be
// called with the lock held.
func (r *Runtime) record(ctx context.Context, action string, detail map[string]any) {
	if r.journal == nil {
		return
	}
	r.emit(journalRecord{ctx: ctx, action: action, detail: detail})
}

// emit delivers one action. A panicking journal never affects the caller.
func (r *Runtime) emit(rec journalRecord) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug("journal record dropped", logging.String("action", rec.action), logging.Any("panic", p))
		}
	}()
	r.journal.Record(rec.ctx, rec.action, rec.detail)
}

// Poisoned reports whether an earlier operation panicked under the lock.
func (r *Runtime) Poisoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.poisoned
}
