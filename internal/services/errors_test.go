package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"revostream/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEngine, "studio", "start_recording", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"studio", "start_recording", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestFailKeepsExactMessage(t *testing.T) {
	err := services.Fail(services.ErrConflict, "scene already exists")
	if err.Error() != "scene already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict marker, got %v", err)
	}
	if errors.Is(err, services.ErrNotFound) {
		t.Fatal("unexpected not-found marker")
	}
}

func TestFailfKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := services.Failf(services.ErrValidation, "failed to create output dir: %w", cause)
	if err.Error() != "failed to create output dir: permission denied" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected marker and cause, got %v", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Fail(services.ErrValidation, "scene name required"), http.StatusBadRequest},
		{services.Fail(services.ErrNotFound, "scene not found"), http.StatusNotFound},
		{services.Fail(services.ErrConflict, "scene already exists"), http.StatusConflict},
		{services.Fail(services.ErrNotInitialized, "engine not initialized"), http.StatusServiceUnavailable},
		{services.Fail(services.ErrEngine, "failed to create scene"), http.StatusBadGateway},
		{services.Fail(services.ErrPoisoned, "state poisoned"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
