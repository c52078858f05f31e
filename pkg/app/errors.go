package app

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrRootUnusable wraps any failure to use the requested root at startup.
	ErrRootUnusable = errors.New("cannot use directory")
	// ErrRootDeleted ends the run when the root disappears under the exit
	// policy.
	ErrRootDeleted = errors.New("watched directory was deleted")
	// ErrJoinTimeout means a background goroutine did not stop in time.
	ErrJoinTimeout = errors.New("background goroutine did not stop")
	// ErrWatcherClosed means the watcher stopped on its own.
	ErrWatcherClosed = errors.New("watcher stopped unexpectedly")
)

// JoinError reports a background goroutine that panicked.
type JoinError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("%s goroutine panicked: %v", e.Name, e.Value)
}
