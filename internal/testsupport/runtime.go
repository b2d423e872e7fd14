package testsupport

import (
	"context"
	"testing"

	"revostream/internal/config"
	"revostream/internal/engine/memengine"
	"revostream/internal/studio"
)

// NewRuntime returns a runtime driving a fresh in-memory engine. The
// runtime is shut down at cleanup and any engine object still alive after
// that fails the test.
func NewRuntime(t testing.TB, opts ...studio.Option) (*studio.Runtime, *memengine.Engine) {
	t.Helper()

	eng := memengine.New()
	rt := studio.New(eng, opts...)
	t.Cleanup(func() {
		if _, err := rt.Shutdown(context.Background()); err != nil {
			t.Errorf("runtime shutdown: %v", err)
			return
		}
		if live := eng.Live(); len(live) != 0 {
			t.Errorf("engine objects leaked after shutdown: %v", live)
		}
	})
	return rt, eng
}

// StartRuntime is NewRuntime followed by Start with the engine section of cfg.
func StartRuntime(t testing.TB, cfg *config.Config, opts ...studio.Option) (*studio.Runtime, *memengine.Engine) {
	t.Helper()

	rt, eng := NewRuntime(t, opts...)
	if _, err := rt.Start(context.Background(), studio.StartOptionsFromConfig(cfg)); err != nil {
		t.Fatalf("runtime start: %v", err)
	}
	return rt, eng
}
