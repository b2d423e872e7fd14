package journal

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"revostream/internal/logging"
)

// Entry is one recorded action.
type Entry struct {
	Seq         uint64         `json:"seq"`
	ID          string         `json:"id"`
	TimestampMS int64          `json:"timestamp_ms"`
	Action      string         `json:"action"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// Sink persists entries. Append errors are logged and otherwise ignored.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const (
	defaultCapacity   = 500
	subscriberBacklog = 64
	redacted          = "***"
)

// secretKeys are detail keys whose values never leave the process.
var secretKeys = map[string]bool{
	"stream_url": true,
	"url":        true,
	"stream_key": true,
	"key":        true,
	"password":   true,
	"token":      true,
	"secret":     true,
	"auth":       true,
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithCapacity sets the ring buffer size.
func WithCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithSink persists every entry through sink.
func WithSink(sink Sink) Option {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// WithLogger sets the recorder logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logging.NewComponentLogger(logger, "journal")
	}
}

// Recorder keeps recent actions in memory, optionally persists them and
// forwards them to live subscribers. Record never fails the caller.
type Recorder struct {
	mu          sync.Mutex
	capacity    int
	buffer      []Entry
	nextSeq     uint64
	subscribers map[string]chan Entry

	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Recorder. When a sink is configured its most recent entries
// seed the ring buffer.
func New(ctx context.Context, opts ...Option) *Recorder {
	r := &Recorder{
		capacity:    defaultCapacity,
		subscribers: make(map[string]chan Entry),
		logger:      logging.NewComponentLogger(nil, "journal"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sink != nil {
		recent, err := r.sink.Recent(ctx, r.capacity)
		if err != nil {
			logging.WarnWithContext(r.logger, "journal history unavailable", "journal_restore_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the journal database permissions"),
				logging.String(logging.FieldImpact, "earlier actions are missing from the journal tail"),
			)
		}
		for _, entry := range recent {
			r.nextSeq++
			entry.Seq = r.nextSeq
			r.buffer = append(r.buffer, entry)
		}
	}
	return r
}

// Record appends an action. Secret-looking detail values are replaced before
// the entry is stored anywhere.
func (r *Recorder) Record(ctx context.Context, action string, detail map[string]any) {
	if r == nil {
		return
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}
	entry := Entry{
		ID:          uuid.NewString(),
		TimestampMS: r.now().UnixMilli(),
		Action:      action,
		Detail:      Redact(detail),
	}

	r.mu.Lock()
	r.nextSeq++
	entry.Seq = r.nextSeq
	if len(r.buffer) == r.capacity {
		copy(r.buffer, r.buffer[1:])
		r.buffer = r.buffer[:r.capacity-1]
	}
	r.buffer = append(r.buffer, entry)
	for _, ch := range r.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
	r.mu.Unlock()

	if r.sink != nil {
		if err := r.sink.Append(ctx, entry); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "journal append failed", "journal_append_failed",
				logging.String("action", action),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry kept in memory only"),
			)
		}
	}
	r.logger.Debug("journal entry recorded",
		logging.String("action", action),
		logging.Int64("seq", int64(entry.Seq)),
	)
}

// Tail returns up to limit of the most recent entries, oldest first. A
// non-positive limit returns the whole buffer.
func (r *Recorder) Tail(limit int) []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.buffer) {
		limit = len(r.buffer)
	}
	return append([]Entry(nil), r.buffer[len(r.buffer)-limit:]...)
}

// Since returns the buffered entries with a sequence greater than seq.
func (r *Recorder) Since(seq uint64) []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, entry := range r.buffer {
		if entry.Seq > seq {
			return append([]Entry(nil), r.buffer[i:]...)
		}
	}
	return nil
}

// Subscribe delivers new entries on the returned channel until cancel is
// called. Slow subscribers miss entries instead of blocking Record.
func (r *Recorder) Subscribe() (<-chan Entry, func()) {
	if r == nil {
		ch := make(chan Entry)
		close(ch)
		return ch, func() {}
	}
	id := uuid.NewString()
	ch := make(chan Entry, subscriberBacklog)
	r.mu.Lock()
	r.subscribers[id] = ch
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Redact returns a copy of detail with secret values replaced. Nested
// objects are redacted too.
func Redact(detail map[string]any) map[string]any {
	if len(detail) == 0 {
		return nil
	}
	out := make(map[string]any, len(detail))
	for k, v := range detail {
		if secretKeys[strings.ToLower(strings.TrimSpace(k))] {
			out[k] = redacted
			continue
		}
		switch nested := v.(type) {
		case map[string]any:
			out[k] = Redact(nested)
		case map[string]string:
			out[k] = redactStrings(nested)
		default:
			out[k] = v
		}
	}
	return out
}

func redactStrings(detail map[string]string) map[string]string {
	if detail == nil {
		return nil
	}
	out := make(map[string]string, len(detail))
	for k, v := range detail {
		if secretKeys[strings.ToLower(strings.TrimSpace(k))] {
			out[k] = redacted
			continue
		}
		out[k] = v
	}
	return out
}
