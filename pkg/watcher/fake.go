package watcher

import (
	"context"
	"sync"
)

// Fake is a Watcher driven by the test through Emit.
type Fake struct {
	// StartErr, when set, is returned by the next Start.
	StartErr error

	mu      sync.Mutex
	ch      chan Event
	running bool
	starts  int
	stops   int
}

var _ Watcher = (*Fake)(nil)

// NewFake returns a stopped Fake.
func NewFake() *Fake {
	return &Fake{}
}

// Start opens a fresh event channel.
func (f *Fake) Start(ctx context.Context) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartErr != nil {
		err := f.StartErr
		f.StartErr = nil
		return nil, err
	}
	if f.running {
		return nil, ErrAlreadyStarted
	}
	f.ch = make(chan Event, 64)
	f.running = true
	f.starts++
	return f.ch, nil
}

// Emit queues ev. It reports false when the fake is not running or the
// buffer is full.
func (f *Fake) Emit(ev Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return false
	}
	select {
	case f.ch <- ev:
		return true
	default:
		return false
	}
}

// Stop closes the event channel. Idempotent.
func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		close(f.ch)
		f.running = false
		f.stops++
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (f *Fake) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Starts counts successful Start calls.
func (f *Fake) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Stops counts effective Stop calls.
func (f *Fake) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}
