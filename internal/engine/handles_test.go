package engine

import "testing"

func TestHandleReleaseIsSharedAcrossCopies(t *testing.T) {
	released := 0
	src := Source{newHandle(7, func(uint64) { released++ })}
	alias := src

	if alias.ID() != 7 {
		t.Fatalf("expected id 7, got %d", alias.ID())
	}
	src.Release()
	if !alias.IsZero() {
		t.Fatalf("copy should observe release")
	}
	alias.Release()
	if released != 1 {
		t.Fatalf("expected a single release call, got %d", released)
	}
}

func TestZeroHandle(t *testing.T) {
	var s Scene
	if !s.IsZero() || s.ID() != 0 {
		t.Fatalf("zero scene should be null")
	}
	s.Release()

	called := false
	h := Output{newHandle(0, func(uint64) { called = true })}
	h.Release()
	if called || !h.IsZero() {
		t.Fatalf("null handle must not release")
	}
}
