package app

import (
	ldebug "github.com/vanderheijden86/livetree/pkg/debug"
	"github.com/vanderheijden86/livetree/pkg/render"
)

// chromeRows is the status bar plus the help line.
const chromeRows = 2

// View composes the current frame: the visible slice of the tree, then the
// status bar and the help line. The frame never has more rows than the
// terminal; on very short terminals the help line goes first, then the tree.
func (a *App) View() []string {
	now := a.opts.Now()
	r := a.renderer

	var rows []string
	switch {
	case a.waiting:
		// Nothing to list until the root comes back.
	case a.snap.Err != "":
		rows = append(rows, r.Message(a.snap.Err))
	default:
		rows = r.Lines(a.snap.Entries, func(path string) bool {
			return a.highlights.Active(path, now)
		})
		if a.snap.Truncated {
			rows = append(rows, r.TruncationLine(a.snap.Len()))
		}
	}

	showHelp := a.height > chromeRows
	visible := a.height - chromeRows
	if !showHelp {
		visible = max(a.height-1, 0)
	}
	a.scroll.Update(len(rows), visible)
	ldebug.Assert(a.scroll.Offset <= len(rows), "scroll offset past the last row")
	end := min(a.scroll.Offset+visible, len(rows))
	frame := make([]string, 0, visible+chromeRows)
	frame = append(frame, rows[a.scroll.Offset:end]...)

	frame = append(frame, r.Status(render.Status{
		Path:       render.DisplayPath(a.root, a.opts.Home),
		Entries:    a.snap.Len(),
		Truncated:  a.snap.Truncated,
		LastChange: a.lastChange,
		Message:    a.message,
		Offset:     a.scroll.Offset,
		Visible:    visible,
		Total:      len(rows),
	}))
	if showHelp {
		frame = append(frame, r.Help(a.highlights.Duration()))
	}
	return frame
}

func (a *App) paint() {
	a.paintLines(a.View())
}

// paintLines writes a frame, cut to the terminal height so painting never
// scrolls. The first failure is kept and ends the loop.
func (a *App) paintLines(lines []string) {
	if a.paintErr != nil {
		return
	}
	if len(lines) > a.height {
		lines = lines[:a.height]
	}
	if ldebug.Enabled() {
		width := a.renderer.Width()
		for _, line := range lines {
			ldebug.Assert(render.VisibleWidth(line) <= width, "frame line wider than the terminal")
		}
	}
	n, err := a.opts.Painter.Paint(lines, a.prevLines)
	if err != nil {
		a.paintErr = err
		return
	}
	a.prevLines = n
}
