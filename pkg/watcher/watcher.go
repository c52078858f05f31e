// Package watcher reports debounced changes under a directory tree.
//
// FSWatcher registers every non-ignored directory with fsnotify and adds new
// directories as they appear. Raw events are coalesced by a trailing-edge
// Debouncer into one Changed event per burst. Every batch re-checks the root
// so a deleted root is reported as RootDeleted rather than as a change.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/livetree/pkg/debug"
	"github.com/vanderheijden86/livetree/pkg/ignore"
	"github.com/vanderheijden86/livetree/pkg/metrics"
	"github.com/vanderheijden86/livetree/pkg/tree"
)

// DefaultPollInterval is the scan interval in polling mode.
const DefaultPollInterval = 2 * time.Second

// eventBuffer sizes the outgoing channel. Debouncing keeps the rate low, so a
// small buffer only absorbs the occasional slow frame.
const eventBuffer = 16

// StatFunc reports on a path. os.Stat in production.
type StatFunc func(name string) (fs.FileInfo, error)

// Option configures an FSWatcher.
type Option func(*FSWatcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *FSWatcher) {
		w.debounceDuration = d
	}
}

// WithMinDebounce sets the floor the debounce duration is clamped to.
func WithMinDebounce(d time.Duration) Option {
	return func(w *FSWatcher) {
		w.minDebounce = d
	}
}

// WithIgnore skips ignored paths, so churn inside e.g. .git never wakes the
// event loop.
func WithIgnore(m *ignore.Matcher) Option {
	return func(w *FSWatcher) {
		w.ignore = m
	}
}

// WithHideHidden drops dot-prefixed paths and everything below them, matching
// a listing that does not show hidden entries.
func WithHideHidden(hide bool) Option {
	return func(w *FSWatcher) {
		w.hideHidden = hide
	}
}

// WithStat replaces the root liveness check.
func WithStat(fn StatFunc) Option {
	return func(w *FSWatcher) {
		w.stat = fn
	}
}

// WithForcePoll scans the tree periodically instead of using fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *FSWatcher) {
		w.forcePoll = force
	}
}

// WithPollInterval sets the scan interval for polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *FSWatcher) {
		w.pollInterval = d
	}
}

// FSWatcher watches a directory tree recursively.
type FSWatcher struct {
	root             string
	debounceDuration time.Duration
	minDebounce      time.Duration
	pollInterval     time.Duration
	forcePoll        bool
	ignore           *ignore.Matcher
	hideHidden       bool
	stat             StatFunc

	mu        sync.Mutex
	started   bool
	polling   bool
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ Watcher = (*FSWatcher)(nil)

// New creates a watcher for root. Nothing is touched until Start.
func New(root string, opts ...Option) (*FSWatcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w := &FSWatcher{
		root:             abs,
		debounceDuration: DefaultDebounceDuration,
		minDebounce:      MinDebounceDuration,
		pollInterval:     DefaultPollInterval,
		stat:             os.Stat,
	}
	for _, opt := range opts {
		opt(w)
	}
	if envBool("LIVETREE_FORCE_POLL") {
		w.forcePoll = true
	}
	return w, nil
}

// Root returns the absolute watched path.
func (w *FSWatcher) Root() string {
	return w.root
}

// Debounce returns the effective (clamped) debounce duration.
func (w *FSWatcher) Debounce() time.Duration {
	return ClampDebounce(w.debounceDuration, w.minDebounce)
}

// IsPolling reports whether the running watcher scans instead of using
// fsnotify.
func (w *FSWatcher) IsPolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// Start validates the root, registers watches and starts the background
// goroutine.
func (w *FSWatcher) Start(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil, ErrAlreadyStarted
	}
	begin := time.Now()

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, newStartError(w.root, err)
	}
	if !info.IsDir() {
		return nil, newStartError(w.root, ErrNotDirectory)
	}
	// A directory we cannot list would give an empty tree with no
	// explanation; fail up front instead.
	f, err := os.Open(w.root)
	if err != nil {
		return nil, newStartError(w.root, err)
	}
	_ = f.Close()

	w.debouncer = NewDebouncer(w.Debounce())
	w.polling = w.forcePoll
	w.fsw = nil

	var baseline map[string]stamp
	if w.polling {
		if baseline, err = w.scan(); err != nil {
			return nil, newStartError(w.root, err)
		}
	} else {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, newStartError(w.root, err)
		}
		if err := w.addTree(fsw, w.root); err != nil {
			_ = fsw.Close()
			return nil, newStartError(w.root, err)
		}
		w.fsw = fsw
	}

	runCtx, cancel := context.WithCancel(ctx)
	out := make(chan Event, eventBuffer)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	debug.LogTiming("watcher: setup", time.Since(begin))
	debug.Log("watcher: started on %s (debounce=%v polling=%v)", w.root, w.debouncer.Duration(), w.polling)
	go w.run(runCtx, out, w.fsw, baseline, w.debouncer, w.done)
	return out, nil
}

// Stop cancels the goroutine, waits for it and closes fsnotify.
func (w *FSWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return nil
	}
	w.cancel()
	<-w.done
	w.debouncer.Cancel()

	var err error
	if w.fsw != nil {
		err = w.fsw.Close()
		w.fsw = nil
	}
	w.started = false
	debug.Log("watcher: stopped %s", w.root)
	return err
}

// run is the watcher goroutine. It alone owns the pending set; the debounce
// timer only signals fire.
func (w *FSWatcher) run(ctx context.Context, out chan<- Event, fsw *fsnotify.Watcher, scanned map[string]stamp, deb *Debouncer, done chan struct{}) {
	defer close(done)
	defer close(out)

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		tick   <-chan time.Time
	)
	if fsw != nil {
		events, errs = fsw.Events, fsw.Errors
	} else {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	pending := make(map[string]struct{})
	fire := make(chan struct{}, 1)
	schedule := func() {
		deb.Trigger(func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			deb.Cancel()
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if w.handle(fsw, ev, pending) {
				schedule()
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; a full rebuild covers whatever they were.
				pending[w.root] = struct{}{}
				schedule()
				continue
			}
			if !send(ctx, out, Event{Kind: Error, Err: err}) {
				return
			}

		case <-tick:
			next, err := w.scan()
			if err != nil {
				pending[w.root] = struct{}{}
				schedule()
				continue
			}
			if diff(scanned, next, pending) {
				schedule()
			}
			scanned = next

		case <-fire:
			if !w.flush(ctx, out, pending) {
				return
			}
		}
	}
}

// handle records one raw event. It reports whether the event is relevant.
func (w *FSWatcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && ev.Name != w.root {
		// Attribute-only changes do not alter the tree.
		return false
	}
	if w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, ev.Name); err != nil {
				debug.Log("watcher: adding %s: %v", ev.Name, err)
			}
		}
	}
	pending[ev.Name] = struct{}{}
	return true
}

// flush turns the pending set into one event after checking the root.
func (w *FSWatcher) flush(ctx context.Context, out chan<- Event, pending map[string]struct{}) bool {
	defer metrics.Timer(metrics.WatchBatch)()

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	clear(pending)
	slices.Sort(paths)

	if _, err := w.stat(w.root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			debug.Log("watcher: root %s is gone", w.root)
			return send(ctx, out, Event{Kind: RootDeleted})
		}
		return send(ctx, out, Event{Kind: Error, Err: &fs.PathError{Op: "stat", Path: w.root, Err: unwrapPathError(err)}})
	}
	debug.Log("watcher: %d paths changed", len(paths))
	return send(ctx, out, Event{Kind: Changed, Paths: paths})
}

// addTree watches dir and every non-ignored directory below it. Unreadable
// subdirectories are skipped; only a failure on dir itself is returned.
func (w *FSWatcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			debug.Log("watcher: skipping %s: %v", path, err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path) {
			return fs.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			if path == dir || isLimit(err) {
				return err
			}
			debug.Log("watcher: watching %s: %v", path, err)
			return fs.SkipDir
		}
		return nil
	})
}

// ignored checks the path relative to the root and each of its ancestors, so
// events deep inside an ignored or hidden directory are dropped as well.
func (w *FSWatcher) ignored(path string) bool {
	if w.ignore == nil && !w.hideHidden {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	if w.hideHidden && slices.ContainsFunc(parts, tree.IsHidden) {
		return true
	}
	if w.ignore == nil {
		return false
	}
	for i := 1; i < len(parts); i++ {
		if w.ignore.Match(strings.Join(parts[:i], "/"), true) {
			return true
		}
	}
	return w.ignore.Match(rel, false) || w.ignore.Match(rel, true)
}

func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
