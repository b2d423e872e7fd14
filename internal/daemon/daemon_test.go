package daemon_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"revostream/internal/daemon"
	"revostream/internal/journal"
	"revostream/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	rt, eng := testsupport.NewRuntime(t)
	d, err := daemon.New(cfg, rt, nil, daemon.WithoutDeviceMonitor(), daemon.WithAutoStart(true))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Daemon.Running {
		t.Fatal("expected daemon to report running")
	}
	if !status.Initialized || status.CurrentScene != "revo_scene" {
		t.Fatalf("expected autostarted runtime, got %+v", status)
	}
	if d.Addr() == "" {
		t.Fatal("expected a listening address")
	}

	resp, err := http.Get("http://" + d.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthy daemon, got %d", resp.StatusCode)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Daemon.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.Initialized {
		t.Fatal("expected stop to shut the engine down")
	}
	if n := eng.LiveCount(); n != 0 {
		t.Fatalf("expected no live engine objects, got %v", eng.Live())
	}
}

func TestSecondDaemonIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	rt, _ := testsupport.NewRuntime(t)
	first, err := daemon.New(cfg, rt, nil, daemon.WithoutDeviceMonitor())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { first.Close() })
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	otherRT, _ := testsupport.NewRuntime(t)
	second, err := daemon.New(cfg, otherRT, nil, daemon.WithoutDeviceMonitor())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	err = second.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
}

func TestDaemonClosesJournalStore(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPersistentJournal())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	rec := journal.New(context.Background(), journal.WithSink(store))
	rt, _ := testsupport.NewRuntime(t)
	d, err := daemon.New(cfg, rt, nil, daemon.WithJournal(rec, store), daemon.WithoutDeviceMonitor())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if got := d.Status(context.Background()).Daemon.JournalPath; got != cfg.JournalPath() {
		t.Fatalf("expected journal path %q, got %q", cfg.JournalPath(), got)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := store.Recent(context.Background(), 1); err == nil {
		t.Fatal("expected store to be closed")
	}
}
