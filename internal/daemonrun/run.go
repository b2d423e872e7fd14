package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"revostream/internal/config"
	"revostream/internal/daemon"
	"revostream/internal/engine/memengine"
	"revostream/internal/journal"
	"revostream/internal/logging"
	"revostream/internal/preflight"
	"revostream/internal/studio"
)

const logStreamCapacity = 4096

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// AutoStart brings the engine up once the API is listening.
	AutoStart bool
	// SkipPreflight runs the daemon even when a required check fails.
	SkipPreflight bool
	// NoDeviceMonitor disables the udev hotplug monitor.
	NoDeviceMonitor bool
}

// Run starts revostreamd and blocks until SIGINT/SIGTERM or ctx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(opts.LogLevel) != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, unix.SIGINT, unix.SIGTERM)
	defer cancel()

	logHub := logging.NewStreamHub(logStreamCapacity)
	logger, logPath, err := logging.NewFromConfig(cfg, logHub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.CurrentLogPath(), logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update revostreamd.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	if !runPreflight(signalCtx, logger, cfg) && !opts.SkipPreflight {
		return fmt.Errorf("preflight checks failed; see %s", logPath)
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	rec, store, err := openJournal(signalCtx, cfg, logger)
	if err != nil {
		return err
	}

	rt := studio.New(memengine.New(),
		studio.WithLogger(logger),
		studio.WithJournal(rec),
	)

	daemonOpts := []daemon.Option{
		daemon.WithJournal(rec, store),
		daemon.WithLogStream(logHub, logPath),
		daemon.WithAutoStart(opts.AutoStart),
	}
	if opts.NoDeviceMonitor {
		daemonOpts = append(daemonOpts, daemon.WithoutDeviceMonitor())
	}
	d, err := daemon.New(cfg, rt, logger, daemonOpts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the other revostreamd or free paths.api_bind"),
			logging.String(logging.FieldImpact, "revostream commands cannot reach the runtime"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("revostream daemon shutting down")
	return nil
}

// openJournal builds the action journal. A journal database that cannot be
// opened degrades to the in-memory ring rather than failing startup.
func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*journal.Recorder, *journal.Store, error) {
	if !cfg.Journal.Enabled {
		return nil, nil, nil
	}
	opts := []journal.Option{
		journal.WithCapacity(cfg.Journal.Buffer),
		journal.WithLogger(logger),
	}
	var store *journal.Store
	if cfg.Journal.Persist {
		opened, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logging.WarnWithContext(logger, "journal database unavailable", "journal_open_failed",
				logging.Error(err),
				logging.String("path", cfg.JournalPath()),
				logging.String(logging.FieldErrorHint, "check state_dir permissions or set journal.persist = false"),
				logging.String(logging.FieldImpact, "journal entries are kept in memory only"),
			)
		} else {
			store = opened
			if pruned, err := store.Prune(ctx, cfg.Journal.Buffer*10); err != nil {
				logger.Warn("journal prune failed", logging.Error(err))
			} else if pruned > 0 {
				logger.Info("journal pruned", logging.Int64("removed", pruned))
			}
			opts = append(opts, journal.WithSink(store))
		}
	}
	return journal.New(ctx, opts...), store, nil
}

func runPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) bool {
	ok := true
	for _, result := range preflight.RunAll(ctx, cfg, true) {
		attrs := []logging.Attr{
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight"),
		}
		switch {
		case result.Passed:
			logger.Debug("preflight check passed", logging.Args(attrs...)...)
		case result.Optional:
			logger.Warn("optional preflight check failed", logging.Args(attrs...)...)
		default:
			ok = false
			logger.Error("preflight check failed", logging.Args(attrs...)...)
		}
	}
	return ok
}

func ensureCurrentLogPointer(current, target string) error {
	if current == "" || target == "" {
		return nil
	}
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

// ReadPID returns the pid recorded by a running daemon, or 0.
func ReadPID(cfg *config.Config) int {
	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
