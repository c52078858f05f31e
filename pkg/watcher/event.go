package watcher

import (
	"context"
	"fmt"
	"strings"
)

// EventKind tags an Event.
type EventKind uint8

const (
	// Changed means something under the root changed; Paths lists what.
	Changed EventKind = iota
	// RootDeleted means the root itself no longer exists.
	RootDeleted
	// Error reports a runtime problem that does not stop the watcher.
	Error
)

func (k EventKind) String() string {
	switch k {
	case Changed:
		return "changed"
	case RootDeleted:
		return "root-deleted"
	case Error:
		return "error"
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// Event is sent on the channel returned by Start. Events are never modified
// after they are sent.
type Event struct {
	Kind  EventKind
	Paths []string // Changed only, sorted and deduplicated
	Err   error    // Error only
}

func (e Event) String() string {
	switch e.Kind {
	case Changed:
		return fmt.Sprintf("changed[%s]", strings.Join(e.Paths, ","))
	case Error:
		return fmt.Sprintf("error[%v]", e.Err)
	}
	return e.Kind.String()
}

// Watcher observes a directory tree. Start may be called again after Stop.
type Watcher interface {
	// Start begins watching. The returned channel is closed when the watcher
	// stops, either through Stop or ctx cancellation.
	Start(ctx context.Context) (<-chan Event, error)
	// Stop releases OS resources and waits for the background goroutine.
	// Idempotent.
	Stop() error
}
