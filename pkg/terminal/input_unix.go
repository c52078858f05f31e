//go:build unix

package terminal

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// pollTimeoutMs bounds how long the reader is blind to cancellation.
const pollTimeoutMs = 100

// InputKind distinguishes input events.
type InputKind uint8

const (
	InputKey InputKind = iota
	InputResize
)

// InputEvent is a key press or a terminal resize.
type InputEvent struct {
	Kind   InputKind
	Key    KeyEvent
	Width  int
	Height int
}

// Reader turns stdin bytes and SIGWINCH into InputEvents.
type Reader struct {
	in     *os.File
	sizeOf *os.File
	buf    []byte
}

// NewReader reads keys from in and measures the window through out.
func NewReader(in, out *os.File) *Reader {
	return &Reader{in: in, sizeOf: out, buf: make([]byte, 0, 64)}
}

// Run blocks until ctx is cancelled or stdin is closed, sending events to
// out. A lone ESC is reported once a poll interval passes with nothing after
// it, which separates the Esc key from the start of an escape sequence.
func (r *Reader) Run(ctx context.Context, out chan<- InputEvent) error {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	fd := int(r.in.Fd())
	chunk := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-winch:
			w, h := Size(r.sizeOf)
			if !send(ctx, out, InputEvent{Kind: InputResize, Width: w, Height: h}) {
				return nil
			}
			continue
		default:
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}
		if n == 0 {
			if len(r.buf) == 1 && r.buf[0] == 0x1b {
				r.buf = r.buf[:0]
				if !send(ctx, out, InputEvent{Kind: InputKey, Key: KeyEvent{Key: KeyEscape}}) {
					return nil
				}
			}
			continue
		}

		rn, err := unix.Read(fd, chunk)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return err
		}
		if rn == 0 {
			// EOF: nothing more will arrive, but the loop must still be
			// quit explicitly.
			<-ctx.Done()
			return nil
		}

		r.buf = append(r.buf, chunk[:rn]...)
		keys, consumed := ParseKeys(r.buf)
		r.buf = append(r.buf[:0], r.buf[consumed:]...)
		for _, k := range keys {
			if !send(ctx, out, InputEvent{Kind: InputKey, Key: k}) {
				return nil
			}
		}
	}
}

func send(ctx context.Context, out chan<- InputEvent, ev InputEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
