package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/vanderheijden86/livetree/pkg/debug"
)

// DefaultGrace is how long a forwarded signal may take to shut the event
// loop down before the hook restores the terminal and exits on its own.
const DefaultGrace = 3 * time.Second

// Hook forwards termination signals to the event loop. If the loop has not
// finished within the grace period, or a second signal arrives, the hook
// restores the terminal and exits the process.
type Hook struct {
	signals chan os.Signal
	forward chan<- os.Signal
	grace   time.Duration
	exit    func(int)

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// InstallHook starts listening for SIGINT, SIGTERM and SIGHUP.
func InstallHook(forward chan<- os.Signal, grace time.Duration) *Hook {
	h := newHook(forward, grace, os.Exit)
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go h.loop()
	return h
}

func newHook(forward chan<- os.Signal, grace time.Duration, exit func(int)) *Hook {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Hook{
		signals: make(chan os.Signal, 2),
		forward: forward,
		grace:   grace,
		exit:    exit,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (h *Hook) loop() {
	defer close(h.done)

	var (
		first    os.Signal
		deadline <-chan time.Time
	)
	for {
		select {
		case <-h.stop:
			return
		case sig := <-h.signals:
			if first != nil {
				h.force(sig)
				return
			}
			first = sig
			debug.Log("terminal: received %v, forwarding", sig)
			select {
			case h.forward <- sig:
			default:
			}
			timer := time.NewTimer(h.grace)
			defer timer.Stop()
			deadline = timer.C
		case <-deadline:
			h.force(first)
			return
		}
	}
}

func (h *Hook) force(sig os.Signal) {
	RestoreActive()
	fmt.Fprintf(os.Stderr, "livetree: %v: forced exit\n", sig)
	h.exit(ExitCode(sig))
}

// Stop detaches the hook. Idempotent.
func (h *Hook) Stop() {
	h.once.Do(func() {
		signal.Stop(h.signals)
		close(h.stop)
		<-h.done
	})
}

// ExitCode follows the shell convention of 128 plus the signal number.
func ExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
