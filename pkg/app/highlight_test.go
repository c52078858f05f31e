package app

import (
	"testing"
	"time"
)

func TestHighlightsLifetime(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHighlights(3 * time.Second)
	h.Touch("/r/a", start)

	if !h.Active("/r/a", start.Add(2*time.Second)) {
		t.Error("expected /r/a highlighted after 2s")
	}
	if h.Active("/r/a", start.Add(3*time.Second)) {
		t.Error("expected /r/a expired after 3s")
	}
	if h.Active("/r/b", start) {
		t.Error("untouched path should not be highlighted")
	}
}

func TestHighlightsTouchRefreshes(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHighlights(3 * time.Second)
	h.Touch("/r/a", start)
	h.Touch("/r/a", start.Add(2*time.Second))
	if !h.Active("/r/a", start.Add(4*time.Second)) {
		t.Error("a second change should restart the highlight")
	}
}

func TestHighlightsPrune(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHighlights(time.Second)
	h.Touch("old", start)
	h.Touch("new", start.Add(900*time.Millisecond))

	if n := h.Prune(start.Add(time.Second)); n != 1 {
		t.Errorf("Prune dropped %d, want 1", n)
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
	if n := h.Prune(start.Add(time.Second)); n != 0 {
		t.Errorf("second Prune dropped %d, want 0", n)
	}
}

func TestHighlightsDisabled(t *testing.T) {
	now := time.Now()
	h := NewHighlights(0)
	h.Touch("a", now)
	if h.Active("a", now) {
		t.Error("zero duration should disable highlighting")
	}
	if n := h.Prune(now); n != 1 {
		t.Errorf("Prune dropped %d, want 1", n)
	}
}

func TestHighlightsSetDurationAndClear(t *testing.T) {
	now := time.Now()
	h := NewHighlights(time.Second)
	h.SetDuration(-time.Second)
	if h.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", h.Duration())
	}
	h.SetDuration(5 * time.Second)
	h.Touch("a", now)
	h.Touch("b", now)
	h.Clear()
	if h.Len() != 0 || h.Active("a", now) {
		t.Error("Clear left highlights behind")
	}
}
