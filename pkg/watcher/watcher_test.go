package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/vanderheijden86/livetree/pkg/ignore"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32

	// Trigger rapidly 10 times
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(5 * time.Millisecond)
	}

	// Wait for debounce to complete
	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_RunsLatestCallback(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Int32
	for i := int32(1); i <= 3; i++ {
		d.Trigger(func() { got.Store(i) })
	}
	time.Sleep(100 * time.Millisecond)

	if v := got.Load(); v != 3 {
		t.Errorf("expected the last callback to run, got %d", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool

	d.Trigger(func() {
		called.Store(true)
	})

	// Cancel before debounce completes
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_MaxWaitBoundsContinuousBursts(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)

	var callCount atomic.Int32
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		d.Trigger(func() { callCount.Add(1) })
		time.Sleep(10 * time.Millisecond)
	}
	d.Cancel()

	if callCount.Load() == 0 {
		t.Error("a never-ending burst should still fire after the max wait")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func TestClampDebounce(t *testing.T) {
	tests := []struct {
		d, floor, want time.Duration
	}{
		{0, 0, DefaultDebounceDuration},
		{10 * time.Millisecond, 0, MinDebounceDuration},
		{10 * time.Millisecond, 20 * time.Millisecond, 20 * time.Millisecond},
		{300 * time.Millisecond, 50 * time.Millisecond, 300 * time.Millisecond},
		{-time.Second, 50 * time.Millisecond, DefaultDebounceDuration},
	}
	for _, tt := range tests {
		if got := ClampDebounce(tt.d, tt.floor); got != tt.want {
			t.Errorf("ClampDebounce(%v, %v) = %v, want %v", tt.d, tt.floor, got, tt.want)
		}
	}
}

// collect drains ch for the given duration.
func collect(ch <-chan Event, d time.Duration) []Event {
	var out []Event
	timeout := time.After(d)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			return out
		}
	}
}

// waitFor returns the first event of the given kind.
func waitFor(t *testing.T, ch <-chan Event, kind EventKind, d time.Duration) Event {
	t.Helper()
	timeout := time.After(d)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %v event within %v", kind, d)
		}
	}
}

func startWatcher(t *testing.T, root string, opts ...Option) (*FSWatcher, <-chan Event) {
	t.Helper()
	w, err := New(root, opts...)
	if err != nil {
		t.Fatal(err)
	}
	ch, err := w.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w, ch
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	root := t.TempDir()
	_, ch := startWatcher(t, root, WithDebounceDuration(50*time.Millisecond))

	target := filepath.Join(root, "new.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitFor(t, ch, Changed, 2*time.Second)
	if !slices.Contains(ev.Paths, target) {
		t.Errorf("expected %s in %v", target, ev.Paths)
	}
}

func TestWatcher_BurstIsDebounced(t *testing.T) {
	root := t.TempDir()
	_, ch := startWatcher(t, root, WithDebounceDuration(200*time.Millisecond))

	start := time.Now()
	for i := 0; i < 50; i++ {
		name := filepath.Join(root, fmt.Sprintf("f%02d.txt", i))
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Skipf("creating files took %v; too slow to exercise a burst", elapsed)
	}

	events := collect(ch, 1500*time.Millisecond)
	changed := 0
	seen := make(map[string]bool)
	for _, ev := range events {
		if ev.Kind == Changed {
			changed++
			for _, p := range ev.Paths {
				seen[p] = true
			}
		}
	}
	if changed < 1 || changed > 3 {
		t.Errorf("expected 1-3 Changed events for a burst of 50 creates, got %d", changed)
	}
	if len(seen) < 50 {
		t.Errorf("expected all 50 paths to be reported, got %d", len(seen))
	}
}

func TestWatcher_StatPermissionErrorIsNotRootDeleted(t *testing.T) {
	root := t.TempDir()
	denied := func(name string) (fs.FileInfo, error) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: syscall.EACCES}
	}
	_, ch := startWatcher(t, root,
		WithDebounceDuration(50*time.Millisecond),
		WithStat(denied),
	)

	if err := os.WriteFile(filepath.Join(root, "a"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	events := collect(ch, 500*time.Millisecond)
	sawError := false
	for _, ev := range events {
		switch ev.Kind {
		case RootDeleted:
			t.Fatal("permission error must not be reported as RootDeleted")
		case Error:
			sawError = true
			if !errors.Is(ev.Err, fs.ErrPermission) {
				t.Errorf("expected a permission error, got %v", ev.Err)
			}
		}
	}
	if !sawError {
		t.Errorf("expected an Error event, got %v", events)
	}
}

func TestWatcher_RootDeleted(t *testing.T) {
	root := filepath.Join(t.TempDir(), "root")
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, ch := startWatcher(t, root, WithDebounceDuration(50*time.Millisecond))

	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, RootDeleted, 2*time.Second)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, ch := startWatcher(t, root, WithDebounceDuration(50*time.Millisecond))

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, ch, Changed, 2*time.Second)

	deep := filepath.Join(sub, "deep.txt")
	if err := os.WriteFile(deep, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitFor(t, ch, Changed, 2*time.Second)
	if !slices.Contains(ev.Paths, deep) {
		t.Errorf("expected %s in %v", deep, ev.Paths)
	}
}

func TestWatcher_IgnoredPathsAreSilent(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, ch := startWatcher(t, root,
		WithDebounceDuration(50*time.Millisecond),
		WithIgnore(ignore.Default()),
	)

	if err := os.WriteFile(filepath.Join(root, ".git", "HEAD"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if events := collect(ch, 300*time.Millisecond); len(events) != 0 {
		t.Errorf("expected no events for ignored paths, got %v", events)
	}
}

func TestWatcher_HiddenPathsAreSilent(t *testing.T) {
	for _, poll := range []bool{false, true} {
		t.Run(fmt.Sprintf("poll=%v", poll), func(t *testing.T) {
			root := t.TempDir()
			if err := os.Mkdir(filepath.Join(root, ".cache"), 0o755); err != nil {
				t.Fatal(err)
			}
			_, ch := startWatcher(t, root,
				WithDebounceDuration(50*time.Millisecond),
				WithHideHidden(true),
				WithForcePoll(poll),
				WithPollInterval(50*time.Millisecond),
			)

			if err := os.WriteFile(filepath.Join(root, ".main.go.swp"), nil, 0o644); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(root, ".cache", "blob"), nil, 0o644); err != nil {
				t.Fatal(err)
			}
			if events := collect(ch, 300*time.Millisecond); len(events) != 0 {
				t.Fatalf("expected no events for hidden paths, got %v", events)
			}

			visible := filepath.Join(root, "main.go")
			if err := os.WriteFile(visible, nil, 0o644); err != nil {
				t.Fatal(err)
			}
			ev := waitFor(t, ch, Changed, 2*time.Second)
			if !slices.Contains(ev.Paths, visible) {
				t.Errorf("expected %s in %v", visible, ev.Paths)
			}
			for _, p := range ev.Paths {
				if rel, _ := filepath.Rel(root, p); strings.HasPrefix(rel, ".") {
					t.Errorf("hidden path %s reported", p)
				}
			}
		})
	}
}

func TestIgnoredHidden(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		rel  string
		hide bool
		want bool
	}{
		{"a.txt", true, false},
		{".a.txt", true, true},
		{"src/.env", true, true},
		{".cache/deep/file", true, true},
		{"src/.env", false, false},
		{"src/main.go", true, false},
	}
	for _, tt := range tests {
		w, err := New(root, WithHideHidden(tt.hide))
		if err != nil {
			t.Fatal(err)
		}
		if got := w.ignored(filepath.Join(w.Root(), filepath.FromSlash(tt.rel))); got != tt.want {
			t.Errorf("ignored(%q) with hide=%v = %v, want %v", tt.rel, tt.hide, got, tt.want)
		}
	}
	w, _ := New(root, WithHideHidden(true))
	if w.ignored(w.Root()) {
		t.Error("the root itself must never be filtered")
	}
}

func TestWatcher_PollingMode(t *testing.T) {
	root := t.TempDir()
	w, ch := startWatcher(t, root,
		WithForcePoll(true),
		WithPollInterval(50*time.Millisecond),
		WithDebounceDuration(50*time.Millisecond),
	)
	if !w.IsPolling() {
		t.Fatal("expected polling mode")
	}

	target := filepath.Join(root, "p.txt")
	if err := os.WriteFile(target, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitFor(t, ch, Changed, 2*time.Second)
	if !slices.Contains(ev.Paths, target) {
		t.Errorf("expected %s in %v", target, ev.Paths)
	}
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv("LIVETREE_FORCE_POLL", "yes")
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !w.forcePoll {
		t.Error("LIVETREE_FORCE_POLL should enable polling")
	}
}

func TestWatcher_StartErrorMissingRoot(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Start(context.Background())

	var se *StartError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StartError, got %T: %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist in chain: %v", err)
	}
	if !strings.Contains(err.Error(), "does not exist") || !strings.Contains(err.Error(), "missing") {
		t.Errorf("message should name the path and cause: %q", err.Error())
	}
}

func TestWatcher_StartErrorNotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w, _ := New(file)
	_, err := w.Start(context.Background())
	if !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ch, err := w.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Stop")
	}

	// Restart after stop
	ch, err = w.Start(context.Background())
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	_ = w.Stop()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after second Stop")
	}
}

func TestWatcher_ContextCancelClosesChannel(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := w.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatcher_DebounceIsClamped(t *testing.T) {
	w, _ := New(t.TempDir(), WithDebounceDuration(time.Millisecond), WithMinDebounce(75*time.Millisecond))
	if got := w.Debounce(); got != 75*time.Millisecond {
		t.Errorf("Debounce() = %v, want 75ms", got)
	}
}

func TestStartErrorLimitHint(t *testing.T) {
	err := newStartError("/r", syscall.ENOSPC)
	if !strings.Contains(err.Error(), "max_user_watches") {
		t.Errorf("expected an actionable hint, got %q", err.Error())
	}
	if !errors.Is(err, syscall.ENOSPC) {
		t.Error("StartError should unwrap to the cause")
	}
}

func TestFake(t *testing.T) {
	f := NewFake()
	if f.Emit(Event{Kind: Changed}) {
		t.Error("Emit before Start should fail")
	}

	ch, err := f.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	f.Emit(Event{Kind: Changed, Paths: []string{"a"}})
	f.Emit(Event{Kind: RootDeleted})

	if ev := <-ch; ev.Kind != Changed || len(ev.Paths) != 1 {
		t.Errorf("unexpected first event %v", ev)
	}
	if ev := <-ch; ev.Kind != RootDeleted {
		t.Errorf("unexpected second event %v", ev)
	}

	_ = f.Stop()
	_ = f.Stop()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
	if f.Stops() != 1 || f.Starts() != 1 {
		t.Errorf("starts=%d stops=%d", f.Starts(), f.Stops())
	}

	f.StartErr = errors.New("boom")
	if _, err := f.Start(context.Background()); err == nil {
		t.Error("expected StartErr")
	}
}

func TestEventString(t *testing.T) {
	if s := (Event{Kind: Changed, Paths: []string{"a", "b"}}).String(); s != "changed[a,b]" {
		t.Errorf("String() = %q", s)
	}
	if s := (Event{Kind: RootDeleted}).String(); s != "root-deleted" {
		t.Errorf("String() = %q", s)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"off", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Setenv("LIVETREE_TEST_BOOL", tt.value)
		if got := envBool("LIVETREE_TEST_BOOL"); got != tt.want {
			t.Errorf("envBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
