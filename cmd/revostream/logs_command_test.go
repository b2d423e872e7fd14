package main

import (
	"os"
	"strings"
	"testing"
	"time"

	"revostream/internal/api"
	"revostream/internal/testsupport"
)

func TestLogsFallsBackToLogFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	configPath := writeTestConfig(t, cfg)
	content := strings.Join([]string{
		`{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"scene created","component":"studio","fields":{"scene":"Intro"}}`,
		`plain startup line`,
		`{"ts":"2026-01-02T03:04:06Z","level":"warn","msg":"bind slow","component":"daemon"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(cfg.CurrentLogPath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "5"}, "127.0.0.1:1", configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "INFO [studio] scene created scene=Intro")
	requireContains(t, out, "plain startup line")
	requireContains(t, out, "WARN [daemon] bind slow")

	out, _, err = runCLI(t, []string{"logs", "--component", "studio"}, "127.0.0.1:1", configPath)
	if err != nil {
		t.Fatalf("logs --component: %v", err)
	}
	if strings.Contains(out, "bind slow") || strings.Contains(out, "plain startup line") {
		t.Fatalf("component filter leaked other lines:\n%s", out)
	}
	requireContains(t, out, "scene created")
}

func TestFormatLogEvent(t *testing.T) {
	evt := api.LogEvent{
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:     "error",
		Message:   "start recording failed",
		Component: "studio",
		Fields:    map[string]string{"path": "/tmp/x.mp4", "error": "busy"},
	}
	got := formatLogEvent(evt)
	if !strings.HasSuffix(got, "ERROR [studio] start recording failed error=busy path=/tmp/x.mp4") {
		t.Fatalf("unexpected format %q", got)
	}
}
