package app

import "time"

// Highlights remembers when each path last changed. A path stays highlighted
// for the configured duration after its most recent change.
type Highlights struct {
	duration time.Duration
	at       map[string]time.Time
}

// NewHighlights creates a tracker; d <= 0 disables highlighting.
func NewHighlights(d time.Duration) *Highlights {
	return &Highlights{duration: max(d, 0), at: make(map[string]time.Time)}
}

// Duration returns how long highlights last.
func (h *Highlights) Duration() time.Duration {
	return h.duration
}

// SetDuration changes the lifetime of current and future highlights.
func (h *Highlights) SetDuration(d time.Duration) {
	h.duration = max(d, 0)
}

// Touch marks path as changed at now.
func (h *Highlights) Touch(path string, now time.Time) {
	h.at[path] = now
}

// Active reports whether path is highlighted at now.
func (h *Highlights) Active(path string, now time.Time) bool {
	if h.duration == 0 {
		return false
	}
	t, ok := h.at[path]
	return ok && now.Sub(t) < h.duration
}

// Prune drops expired highlights and returns how many were dropped.
func (h *Highlights) Prune(now time.Time) int {
	n := 0
	for p, t := range h.at {
		if h.duration == 0 || now.Sub(t) >= h.duration {
			delete(h.at, p)
			n++
		}
	}
	return n
}

// Clear drops every highlight.
func (h *Highlights) Clear() {
	clear(h.at)
}

// Len returns the number of tracked paths, expired or not.
func (h *Highlights) Len() int {
	return len(h.at)
}
