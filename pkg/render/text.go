package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated text.
const Ellipsis = "…"

// Sanitize escapes control characters so a hostile file name cannot move the
// cursor or inject escape sequences into the frame.
func Sanitize(s string) string {
	if !hasControl(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02X`, r)
		case r >= 0x80 && r < 0xa0:
			fmt.Fprintf(&b, `\u%04X`, r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most width display columns, ending in an
// ellipsis when anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	ellipsisWidth := runewidth.StringWidth(Ellipsis)
	if ellipsisWidth >= width {
		return runewidth.Truncate(Ellipsis, width, "")
	}
	return runewidth.Truncate(s, width-ellipsisWidth, "") + Ellipsis
}

// cutForEllipsis shortens s so that it plus an ellipsis fits width, even when
// s alone would fit.
func cutForEllipsis(s string, width int) string {
	ellipsisWidth := runewidth.StringWidth(Ellipsis)
	if width <= ellipsisWidth {
		return runewidth.Truncate(Ellipsis, width, "")
	}
	return runewidth.Truncate(s, width-ellipsisWidth, "") + Ellipsis
}

// TruncateMiddle keeps the head and tail of s and elides the middle, which
// reads better than a cut-off tail for long paths.
func TruncateMiddle(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	ellipsisWidth := runewidth.StringWidth(Ellipsis)
	if width <= ellipsisWidth+1 {
		return Truncate(s, width)
	}
	avail := width - ellipsisWidth
	headWidth := avail / 2
	tailWidth := avail - headWidth

	head := runewidth.Truncate(s, headWidth, "")
	runes := []rune(s)
	tailStart := len(runes)
	w := 0
	for tailStart > 0 {
		rw := runewidth.RuneWidth(runes[tailStart-1])
		if w+rw > tailWidth {
			break
		}
		w += rw
		tailStart--
	}
	return head + Ellipsis + string(runes[tailStart:])
}

// PadRight pads s with spaces to width display columns.
func PadRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// VisibleWidth measures a styled line, ignoring escape sequences.
func VisibleWidth(s string) int {
	return ansi.StringWidth(s)
}

// DisplayPath collapses home to "~".
func DisplayPath(path, home string) string {
	if home == "" {
		return path
	}
	home = filepath.Clean(home)
	clean := filepath.Clean(path)
	if clean == home {
		return "~"
	}
	rel, err := filepath.Rel(home, clean)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return "~" + string(filepath.Separator) + rel
}
