package terminal

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestHookForwardsFirstSignal(t *testing.T) {
	forward := make(chan os.Signal, 1)
	exited := make(chan int, 1)
	h := newHook(forward, time.Hour, func(code int) { exited <- code })
	go h.loop()
	defer h.Stop()

	h.signals <- syscall.SIGTERM

	select {
	case sig := <-forward:
		if sig != syscall.SIGTERM {
			t.Errorf("forwarded %v, want SIGTERM", sig)
		}
	case <-time.After(time.Second):
		t.Fatal("signal was not forwarded")
	}
	select {
	case code := <-exited:
		t.Fatalf("hook exited early with %d", code)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHookForcesExitAfterGrace(t *testing.T) {
	forward := make(chan os.Signal, 1)
	exited := make(chan int, 1)
	h := newHook(forward, 20*time.Millisecond, func(code int) { exited <- code })
	go h.loop()
	defer h.Stop()

	h.signals <- syscall.SIGINT

	select {
	case code := <-exited:
		if code != 130 {
			t.Errorf("exit code %d, want 130", code)
		}
	case <-time.After(time.Second):
		t.Fatal("hook did not force an exit")
	}
}

func TestHookSecondSignalForcesExit(t *testing.T) {
	forward := make(chan os.Signal, 1)
	exited := make(chan int, 1)
	h := newHook(forward, time.Hour, func(code int) { exited <- code })
	go h.loop()
	defer h.Stop()

	h.signals <- syscall.SIGINT
	h.signals <- syscall.SIGTERM

	select {
	case code := <-exited:
		if code != 143 {
			t.Errorf("exit code %d, want 143", code)
		}
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}
}

func TestHookStopIsIdempotent(t *testing.T) {
	h := newHook(make(chan os.Signal, 1), time.Second, func(int) {})
	go h.loop()
	h.Stop()
	h.Stop()
}

func TestGuardReleaseNil(t *testing.T) {
	var g *Guard
	if err := g.Release(); err != nil {
		t.Fatalf("nil guard Release: %v", err)
	}
	RestoreActive()
}
