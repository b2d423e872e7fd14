package preflight

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"revostream/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBind_Available(t *testing.T) {
	result := CheckBind(context.Background(), "127.0.0.1:0")
	if !result.Passed {
		t.Fatalf("expected free port to pass, got: %s", result.Detail)
	}
}

func TestCheckBind_InUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	result := CheckBind(context.Background(), ln.Addr().String())
	if result.Passed {
		t.Fatal("expected failure for occupied address")
	}
	if !strings.Contains(result.Detail, "address in use") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckBind_Malformed(t *testing.T) {
	if result := CheckBind(context.Background(), "localhost"); result.Passed {
		t.Fatal("expected failure for address without port")
	}
}

func TestCheckStreamTarget(t *testing.T) {
	tests := []struct {
		target string
		pass   bool
	}{
		{"rtmp://live.example.com/app/secret", true},
		{"rtmps://live.example.com:443/app", true},
		{"http://example.com/app", false},
		{"rtmp:///app", false},
	}
	for _, tc := range tests {
		result := CheckStreamTarget(tc.target)
		if result.Passed != tc.pass {
			t.Errorf("%s: expected pass=%v, got %+v", tc.target, tc.pass, result)
		}
		if strings.Contains(result.Detail, "secret") {
			t.Errorf("%s: detail leaks stream key: %q", tc.target, result.Detail)
		}
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, true); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Recording.Path = filepath.Join(base, "rec") + "/"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), &cfg, true)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := "State directory,Log directory,Recording directory,API bind,pactl"
	if strings.Join(names, ",") != want {
		t.Fatalf("expected checks %q, got %q", want, strings.Join(names, ","))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_SkipsBindAndAddsStreamTarget(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Recording.Path = ""
	cfg.Streaming.URL = "ftp://nowhere"

	results := RunAll(context.Background(), &cfg, false)
	for _, r := range results {
		if r.Name == "API bind" {
			t.Fatal("bind check should be skipped")
		}
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Stream target" {
		t.Fatalf("expected stream target failure, got %+v", failed)
	}
}
