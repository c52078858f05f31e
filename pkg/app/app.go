// Package app runs the event loop that ties the watcher, the tree builder,
// the renderer and the frame writer together.
//
// The loop goroutine is the only one that builds trees, renders and writes
// to the terminal. The watcher and the input reader run on their own
// goroutines and talk to the loop through one-directional channels.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/livetree/pkg/config"
	ldebug "github.com/vanderheijden86/livetree/pkg/debug"
	"github.com/vanderheijden86/livetree/pkg/metrics"
	"github.com/vanderheijden86/livetree/pkg/render"
	"github.com/vanderheijden86/livetree/pkg/terminal"
	"github.com/vanderheijden86/livetree/pkg/tree"
	"github.com/vanderheijden86/livetree/pkg/watcher"
)

// Defaults for Options fields left zero.
const (
	DefaultTick     = 250 * time.Millisecond
	DefaultRootPoll = time.Second
	highlightStep   = time.Second
)

// Input produces key and resize events until ctx is cancelled.
type Input interface {
	Run(ctx context.Context, out chan<- terminal.InputEvent) error
}

// Painter draws a frame. prev is the line count returned by the previous call.
type Painter interface {
	Paint(lines []string, prev int) (int, error)
}

// Options configures an App.
type Options struct {
	Root   string
	Tree   tree.Config
	Render render.Config
	Height int

	Builder    tree.Builder                      // defaults to tree.FS
	NewWatcher func() (watcher.Watcher, error)   // called at start and after the root reappears
	Input      Input                             // nil runs without keyboard input
	Painter    Painter                           // required
	Signals    <-chan os.Signal                  // termination requests
	Stat       func(string) (fs.FileInfo, error) // root check while waiting; os.Stat

	Policy      config.RootDeletedPolicy
	Highlight   time.Duration
	JoinTimeout time.Duration
	Tick        time.Duration
	RootPoll    time.Duration
	Quiet       bool   // keep watcher errors off the status bar
	Home        string // collapsed to ~ in the status bar
	Now         func() time.Time
}

// App is one run of the event loop.
type App struct {
	opts     Options
	root     string
	renderer *render.Renderer
	height   int

	state atomic.Int32

	watcher watcher.Watcher
	events  <-chan watcher.Event

	snap       tree.Snapshot
	highlights *Highlights
	scroll     Scroll
	lastChange time.Time
	message    string
	waiting    bool
	lastPoll   time.Time
	signal     os.Signal

	prevLines int
	paintErr  error
}

// New validates the root and fills in defaults.
func New(opts Options) (*App, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRootUnusable, opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRootUnusable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w %s: not a directory", ErrRootUnusable, root)
	}
	if opts.Painter == nil {
		return nil, errors.New("app: Painter is required")
	}
	if opts.NewWatcher == nil {
		return nil, errors.New("app: NewWatcher is required")
	}

	if opts.Builder == nil {
		opts.Builder = tree.FS
	}
	if opts.Stat == nil {
		opts.Stat = os.Stat
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.RootPoll <= 0 {
		opts.RootPoll = DefaultRootPoll
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = config.DefaultJoinTimeout
	}
	if opts.Policy == "" {
		opts.Policy = config.PolicyExit
	}
	if opts.Height <= 0 {
		opts.Height = terminal.FallbackHeight
	}

	a := &App{
		opts:       opts,
		root:       root,
		renderer:   render.New(opts.Render),
		height:     opts.Height,
		highlights: NewHighlights(opts.Highlight),
	}
	a.state.Store(int32(StateStarting))
	return a, nil
}

// Root returns the absolute watched path.
func (a *App) Root() string {
	return a.root
}

// State returns the current lifecycle stage. Safe from any goroutine.
func (a *App) State() State {
	return State(a.state.Load())
}

// Signal returns the signal that ended Run, or nil. Only valid after Run
// returns.
func (a *App) Signal() os.Signal {
	return a.signal
}

func (a *App) setState(s State) {
	ldebug.Log("app: %v -> %v", a.State(), s)
	a.state.Store(int32(s))
}

// Run starts the watcher and the input reader, then loops until the user
// quits, a signal arrives, ctx is cancelled or the root is deleted under the
// exit policy. It always stops the watcher and waits (bounded) for the input
// goroutine before returning.
func (a *App) Run(ctx context.Context) error {
	defer a.setState(StateTerminated)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.startWatcher(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	inputCh := make(chan terminal.InputEvent, 16)
	if a.opts.Input != nil {
		g.Go(func() error {
			return supervise("input", func() error {
				return a.opts.Input.Run(gctx, inputCh)
			})
		})
	}

	a.rebuild()
	a.paint()
	a.setState(StateRunning)

	loopErr := a.loop(ctx, gctx, inputCh)

	a.setState(StateShuttingDown)
	cancel()
	stopErr := a.stopWatcher()
	joinErr := waitTimeout(g, a.opts.JoinTimeout)
	if joinErr != nil {
		ldebug.Log("app: %v", joinErr)
	}
	if summary := metrics.Summary(); summary != "" {
		ldebug.Log("app: timings\n%s", summary)
	}
	return errors.Join(loopErr, joinErr, stopErr)
}

func (a *App) loop(ctx, gctx context.Context, inputCh <-chan terminal.InputEvent) error {
	ticker := time.NewTicker(a.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-gctx.Done():
			// The input goroutine failed; its error comes out of the join.
			return nil
		case sig := <-a.opts.Signals:
			ldebug.Log("app: %v received, shutting down", sig)
			a.signal = sig
			return nil
		case ev, ok := <-a.events:
			if !ok {
				a.events = nil
				if ctx.Err() != nil {
					return nil
				}
				return ErrWatcherClosed
			}
			if done, err := a.handleWatch(ev); done {
				return err
			}
		case in := <-inputCh:
			if a.handleInput(in) {
				return nil
			}
		case <-ticker.C:
			a.tick(ctx)
		}
		if a.paintErr != nil {
			return fmt.Errorf("painting frame: %w", a.paintErr)
		}
	}
}

func (a *App) handleWatch(ev watcher.Event) (bool, error) {
	switch ev.Kind {
	case watcher.Changed:
		now := a.opts.Now()
		a.lastChange = now
		a.message = ""
		for _, p := range ev.Paths {
			a.highlights.Touch(p, now)
		}
		a.rebuild()
		a.paint()

	case watcher.RootDeleted:
		if a.opts.Policy == config.PolicyWait {
			ldebug.Log("app: root %s deleted, waiting", a.root)
			if err := a.stopWatcher(); err != nil {
				ldebug.Log("app: stopping watcher: %v", err)
			}
			a.waiting = true
			a.lastPoll = a.opts.Now()
			a.snap = tree.Snapshot{}
			a.scroll.Home()
			a.message = "waiting for " + render.DisplayPath(a.root, a.opts.Home) + " to reappear"
			a.paint()
			return false, nil
		}
		a.paintLines([]string{
			a.renderer.Message("Directory deleted: " + a.root),
			a.renderer.Message("Exiting..."),
		})
		return true, fmt.Errorf("%s: %w", a.root, ErrRootDeleted)

	case watcher.Error:
		ldebug.Log("app: watcher error: %v", ev.Err)
		if !a.opts.Quiet {
			a.message = fmt.Sprintf("watch error: %v", ev.Err)
			a.paint()
		}
	}
	return false, nil
}

// handleInput reports whether the user asked to quit.
func (a *App) handleInput(in terminal.InputEvent) bool {
	if in.Kind == terminal.InputResize {
		a.renderer.SetWidth(in.Width)
		if in.Height > 0 {
			a.height = in.Height
		}
		a.paint()
		return false
	}

	k := in.Key
	switch k.Key {
	case terminal.KeyCtrlC, terminal.KeyEscape:
		return true
	case terminal.KeyUp:
		a.scroll.By(-1)
	case terminal.KeyDown:
		a.scroll.By(1)
	case terminal.KeyPageUp:
		a.scroll.By(-a.scroll.Page())
	case terminal.KeyPageDown:
		a.scroll.By(a.scroll.Page())
	case terminal.KeyHome:
		a.scroll.Home()
	case terminal.KeyEnd:
		a.scroll.End()
	case terminal.KeyRune:
		if k.Mod&terminal.ModAlt != 0 {
			return false
		}
		switch k.Rune {
		case 'q', 'Q':
			return true
		case 'k':
			a.scroll.By(-1)
		case 'j':
			a.scroll.By(1)
		case 'g':
			a.scroll.Home()
		case 'G':
			a.scroll.End()
		case 'r':
			a.highlights.Clear()
		case '+', '=':
			a.highlights.SetDuration(min(a.highlights.Duration()+highlightStep, config.MaxHighlight))
		case '-', '_':
			a.highlights.SetDuration(a.highlights.Duration() - highlightStep)
		default:
			return false
		}
	default:
		return false
	}
	a.paint()
	return false
}

// tick expires highlights and, while waiting, checks whether the root is
// back.
func (a *App) tick(ctx context.Context) {
	now := a.opts.Now()
	if a.highlights.Prune(now) > 0 {
		a.paint()
	}
	if !a.waiting || now.Sub(a.lastPoll) < a.opts.RootPoll {
		return
	}
	a.lastPoll = now

	info, err := a.opts.Stat(a.root)
	if err != nil || !info.IsDir() {
		return
	}
	if err := a.startWatcher(ctx); err != nil {
		ldebug.Log("app: restarting watcher: %v", err)
		a.message = err.Error()
		a.paint()
		return
	}
	ldebug.Log("app: root %s is back", a.root)
	a.waiting = false
	a.message = ""
	a.lastChange = now
	a.rebuild()
	a.paint()
}

func (a *App) startWatcher(ctx context.Context) error {
	w, err := a.opts.NewWatcher()
	if err != nil {
		return err
	}
	events, err := w.Start(ctx)
	if err != nil {
		return err
	}
	a.watcher = w
	a.events = events
	return nil
}

func (a *App) stopWatcher() error {
	if a.watcher == nil {
		return nil
	}
	w := a.watcher
	a.watcher = nil
	a.events = nil
	return w.Stop()
}

func (a *App) rebuild() {
	defer ldebug.LogEnterExit("app.rebuild")()
	a.snap = a.opts.Builder.Build(a.root, a.opts.Tree)
	if a.snap.Truncated {
		ldebug.Log("app: listing truncated at %d entries", a.snap.Len())
	}
}

// supervise turns a panic in fn into a *JoinError.
func supervise(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &JoinError{Name: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// waitTimeout waits for g, giving up after d.
func waitTimeout(g *errgroup.Group, d time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		return fmt.Errorf("%w within %v", ErrJoinTimeout, d)
	}
}
