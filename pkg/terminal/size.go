package terminal

import (
	"os"

	"golang.org/x/term"
)

// Fallback dimensions when the size cannot be read.
const (
	FallbackWidth  = 80
	FallbackHeight = 24
)

// Size returns the window size of f, or the fallback when f is not a
// terminal or reports zero.
func Size(f *os.File) (int, int) {
	if f == nil {
		return FallbackWidth, FallbackHeight
	}
	w, h, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return FallbackWidth, FallbackHeight
	}
	if w <= 0 {
		w = FallbackWidth
	}
	if h <= 0 {
		h = FallbackHeight
	}
	return w, h
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
