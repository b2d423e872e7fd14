package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"revostream/internal/api"
	"revostream/internal/collection"
	"revostream/internal/config"
	"revostream/internal/devices"
	"revostream/internal/journal"
	"revostream/internal/logging"
	"revostream/internal/studio"
)

// Daemon owns the studio runtime for the lifetime of revostreamd and
// enforces single-instance execution.
type Daemon struct {
	cfg         *config.Config
	logger      *slog.Logger
	runtime     *studio.Runtime
	collections *collection.Service
	journal     *journal.Recorder
	store       *journal.Store
	lister      *devices.Lister
	monitor     *devices.Monitor
	logHub      *logging.StreamHub
	logPath     string
	metrics     *Metrics
	autoStart   bool

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	api       *apiServer
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithJournal attaches the action journal and its optional SQLite store.
// The store is closed by Close.
func WithJournal(rec *journal.Recorder, store *journal.Store) Option {
	return func(d *Daemon) {
		d.journal = rec
		d.store = store
	}
}

// WithLogStream exposes hub at /api/logs and reports logPath in status.
func WithLogStream(hub *logging.StreamHub, logPath string) Option {
	return func(d *Daemon) {
		d.logHub = hub
		d.logPath = logPath
	}
}

// WithDeviceLister replaces the device enumerator.
func WithDeviceLister(l *devices.Lister) Option {
	return func(d *Daemon) {
		d.lister = l
	}
}

// WithAutoStart starts the engine from the configured engine section when
// the daemon starts.
func WithAutoStart(enabled bool) Option {
	return func(d *Daemon) {
		d.autoStart = enabled
	}
}

// WithoutDeviceMonitor disables the netlink hotplug monitor.
func WithoutDeviceMonitor() Option {
	return func(d *Daemon) {
		d.monitor = nil
	}
}

// New constructs a daemon around rt.
func New(cfg *config.Config, rt *studio.Runtime, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || rt == nil {
		return nil, errors.New("daemon requires config and runtime")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		runtime:  rt,
		metrics:  NewMetrics(),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.lister = devices.NewLister(logger)
	d.monitor = devices.NewMonitor(logger, d.handleDeviceEvent)
	for _, opt := range opts {
		opt(d)
	}
	d.collections = collection.New(rt,
		collection.WithLogger(logger),
		collection.WithJournal(d.journal),
	)
	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, starts the device monitor and the API
// server and optionally brings the engine up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another revostream daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}
	if err := d.monitor.Start(d.ctx); err != nil {
		d.logger.Warn("device monitor failed to start", logging.Error(err))
	}

	if d.autoStart {
		msg, err := d.runtime.Start(d.ctx, studio.StartOptionsFromConfig(d.cfg))
		if err != nil {
			logging.WarnWithContext(d.logger, "engine autostart failed", "engine_autostart_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check engine.root_dir and the engine log"),
				logging.String(logging.FieldImpact, "runtime stays idle until POST /api/runtime/start"),
			)
		} else {
			d.logger.Info("engine autostart", logging.String("message", msg))
		}
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("revostream daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api_bind", d.api.address()),
	)
	return nil
}

// Stop shuts the engine down, stops background services and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := d.runtime.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("engine shutdown failed", logging.Error(err))
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("revostream daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Addr returns the address the API server listens on, or "" before Start.
func (d *Daemon) Addr() string {
	return d.api.address()
}

// Handler returns the API router. Useful for serving without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the runtime state plus daemon process details.
func (d *Daemon) Status(ctx context.Context) api.Status {
	rs, err := d.runtime.Status(ctx)
	if err != nil {
		d.logger.Debug("runtime status unavailable", logging.Error(err))
	}
	status := api.FromStatus(rs)
	status.Poisoned = d.runtime.Poisoned()
	status.Daemon = api.Daemon{
		Running:        d.running.Load(),
		PID:            os.Getpid(),
		LockPath:       d.lockPath,
		LogPath:        d.logPath,
		DeviceMonitor:  d.monitor.Running(),
		JournalEntries: len(d.journal.Tail(0)),
	}
	if d.store != nil {
		status.Daemon.JournalPath = d.store.Path()
	}
	if !d.startedAt.IsZero() {
		status.Daemon.StartedAt = d.startedAt.UTC().Format(time.RFC3339)
	}
	return status
}

func (d *Daemon) handleDeviceEvent(ctx context.Context, evt devices.Event) {
	d.metrics.ObserveDeviceEvent(evt.Action)
	d.journal.Record(ctx, evt.Action, map[string]any{"device": evt.Device})
	d.logger.Info("video device changed",
		logging.String(logging.FieldEventType, evt.Action),
		logging.String("device", evt.Device),
	)
}
