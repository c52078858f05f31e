package terminal

import (
	"bytes"
	"io"

	"github.com/vanderheijden86/livetree/pkg/metrics"
)

type flusher interface {
	Flush() error
}

// FrameWriter paints whole frames in a single write so the terminal never
// shows a half-drawn tree.
type FrameWriter struct {
	out io.Writer
	buf bytes.Buffer
}

// NewFrameWriter wraps out. If out has a Flush method it is called once per
// frame after the write.
func NewFrameWriter(out io.Writer) *FrameWriter {
	return &FrameWriter{out: out}
}

// Paint draws lines from the top-left corner. Rows from len(lines) up to
// prev (the line count of the previous frame) are cleared. It returns the
// number of lines painted, which the caller passes as prev next time.
func (f *FrameWriter) Paint(lines []string, prev int) (int, error) {
	defer metrics.Timer(metrics.FramePaint)()

	f.buf.Reset()
	f.buf.WriteString(CursorHome)
	for i, line := range lines {
		if i > 0 {
			f.buf.WriteString("\r\n")
		}
		f.buf.WriteString(ClearLine)
		f.buf.WriteString(line)
	}
	for row := len(lines); row < prev; row++ {
		f.buf.WriteString(CursorRow(row + 1))
		f.buf.WriteString(ClearLine)
	}

	if _, err := f.out.Write(f.buf.Bytes()); err != nil {
		return 0, err
	}
	if fl, ok := f.out.(flusher); ok {
		if err := fl.Flush(); err != nil {
			return 0, err
		}
	}
	return len(lines), nil
}

// Clear wipes the screen, used before the first frame.
func (f *FrameWriter) Clear() error {
	_, err := io.WriteString(f.out, CursorHome+ClearScreen)
	if err != nil {
		return err
	}
	if fl, ok := f.out.(flusher); ok {
		return fl.Flush()
	}
	return nil
}
