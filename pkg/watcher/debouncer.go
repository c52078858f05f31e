package watcher

import (
	"sync"
	"time"
)

// Debounce bounds.
const (
	DefaultDebounceDuration = 200 * time.Millisecond
	MinDebounceDuration     = 50 * time.Millisecond
)

// maxWaitFactor caps how long a continuous burst can postpone a trigger, as a
// multiple of the debounce duration.
const maxWaitFactor = 4

// ClampDebounce raises d to floor. A non-positive d means the default.
func ClampDebounce(d, floor time.Duration) time.Duration {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	if floor <= 0 {
		floor = MinDebounceDuration
	}
	if d < floor {
		return floor
	}
	return d
}

// Debouncer runs the most recent callback once triggers stop arriving for the
// configured duration. A burst that never pauses still fires after
// maxWaitFactor durations.
type Debouncer struct {
	mu       sync.Mutex
	duration time.Duration
	maxWait  time.Duration
	timer    *time.Timer
	first    time.Time
	fn       func()
	gen      uint64
}

// NewDebouncer creates a Debouncer; d <= 0 selects DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d, maxWait: d * maxWaitFactor}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Trigger schedules fn, replacing any pending callback.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fn = fn
	now := time.Now()
	if d.timer != nil {
		if now.Sub(d.first) >= d.maxWait {
			// Let the pending timer fire with the newest callback.
			return
		}
		d.timer.Stop()
	} else {
		d.first = now
	}

	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.duration, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		f := d.fn
		d.fn = nil
		d.timer = nil
		d.mu.Unlock()
		if f != nil {
			f()
		}
	})
}

// Cancel drops any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
}
