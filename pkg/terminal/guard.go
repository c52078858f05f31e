// Package terminal owns the controlling terminal: raw mode, frame painting,
// key input, and guaranteed restoration on every exit path.
//
// Terminal mode is process-wide state. Acquire enters raw mode once and
// returns a Guard; Guard.Release, RestoreActive, RestoreOnPanic and the
// signal hook all funnel into the same idempotent restore.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/term"

	ldebug "github.com/vanderheijden86/livetree/pkg/debug"
)

// ErrNotTerminal is returned when stdin or stdout is not a terminal.
var ErrNotTerminal = errors.New("not a terminal")

// Options controls what Acquire changes besides raw mode.
type Options struct {
	AltScreen bool
	Title     string // window title, empty to leave it alone
}

// Guard restores the terminal when released.
type Guard struct {
	fd    int
	out   io.Writer
	state *term.State
	opts  Options

	once sync.Once
	err  error
}

var (
	activeMu sync.Mutex
	active   *Guard
)

// Acquire switches in to raw mode and prepares out for painting.
func Acquire(in, out *os.File, opts Options) (*Guard, error) {
	if !IsTerminal(in) || !IsTerminal(out) {
		return nil, ErrNotTerminal
	}
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw mode: %w", err)
	}

	g := &Guard{fd: fd, out: out, state: state, opts: opts}
	if _, err := io.WriteString(out, g.enterSequence()); err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("preparing terminal: %w", err)
	}

	activeMu.Lock()
	active = g
	activeMu.Unlock()
	ldebug.Log("terminal: acquired fd=%d alt=%v", fd, opts.AltScreen)
	return g, nil
}

func (g *Guard) enterSequence() string {
	var b strings.Builder
	if g.opts.Title != "" {
		b.WriteString(TitlePush)
		b.WriteString(SetTitle(g.opts.Title))
	}
	if g.opts.AltScreen {
		b.WriteString(AltScreenOn)
	}
	b.WriteString(CursorHide)
	b.WriteString(AutoWrapOff)
	b.WriteString(CursorHome)
	b.WriteString(ClearScreen)
	return b.String()
}

func (g *Guard) leaveSequence() string {
	var b strings.Builder
	b.WriteString(SGRReset)
	b.WriteString(AutoWrapOn)
	b.WriteString(CursorShow)
	if g.opts.AltScreen {
		b.WriteString(AltScreenOff)
	} else {
		b.WriteString(CursorHome)
		b.WriteString(ClearScreen)
	}
	if g.opts.Title != "" {
		b.WriteString(TitlePop)
	}
	return b.String()
}

// Release restores the terminal. Safe to call more than once and from any
// goroutine; only the first call does anything.
func (g *Guard) Release() error {
	if g == nil {
		return nil
	}
	g.once.Do(func() {
		_, werr := io.WriteString(g.out, g.leaveSequence())
		rerr := term.Restore(g.fd, g.state)
		g.err = errors.Join(werr, rerr)

		activeMu.Lock()
		if active == g {
			active = nil
		}
		activeMu.Unlock()
		ldebug.Log("terminal: released (err=%v)", g.err)
	})
	return g.err
}

// RestoreActive releases the current guard, if any.
func RestoreActive() {
	activeMu.Lock()
	g := active
	activeMu.Unlock()
	if g != nil {
		_ = g.Release()
	}
}

// RestoreOnPanic must be deferred at the top of main and of every goroutine
// that may panic while the terminal is raw. It restores the terminal, prints
// the panic with its stack, and exits with status 1.
func RestoreOnPanic() {
	if r := recover(); r != nil {
		RestoreActive()
		fmt.Fprintf(os.Stderr, "livetree: panic: %v\n%s", r, debug.Stack())
		os.Exit(1)
	}
}

// EmergencyReset writes every restore sequence and forces cooked mode on the
// controlling tty. Used when the guard itself may be unusable.
func EmergencyReset(w io.Writer) {
	_, _ = io.WriteString(w, SGRReset+AutoWrapOn+CursorShow+AltScreenOff+resetInitial)
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
	resetTerminalMode()
}
