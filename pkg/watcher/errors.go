package watcher

import (
	"errors"
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// Common errors.
var (
	ErrAlreadyStarted = errors.New("watcher already started")
	ErrNotDirectory   = errors.New("not a directory")
)

// StartError explains why the root cannot be watched.
type StartError struct {
	Root  string
	Cause string // plain-language reason
	Hint  string // what the user can do about it, may be empty
	Err   error
}

func (e *StartError) Error() string {
	msg := fmt.Sprintf("cannot watch %s: %s", e.Root, e.Cause)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func newStartError(root string, err error) *StartError {
	se := &StartError{Root: root, Err: err}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		se.Cause = "directory does not exist"
		se.Hint = "check the path"
	case errors.Is(err, fs.ErrPermission):
		se.Cause = "permission denied"
		se.Hint = "the directory must be readable and searchable"
	case errors.Is(err, ErrNotDirectory):
		se.Cause = "not a directory"
	case isLimit(err):
		se.Cause = "the system limit on file watches is exhausted"
		se.Hint = "raise fs.inotify.max_user_watches / max_user_instances, watch a smaller tree, or set LIVETREE_FORCE_POLL=1"
	default:
		se.Cause = err.Error()
	}
	return se
}

// isLimit reports whether err means the OS ran out of watch resources.
func isLimit(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EMFILE)
}
