package terminal

import "strconv"

// Escape sequences written by the frame writer and the guard.
const (
	CursorHome    = "\x1b[H"
	ClearLine     = "\x1b[2K"
	ClearScreen   = "\x1b[2J"
	SGRReset      = "\x1b[0m"
	CursorHide    = "\x1b[?25l"
	CursorShow    = "\x1b[?25h"
	AltScreenOn   = "\x1b[?1049h"
	AltScreenOff  = "\x1b[?1049l"
	AutoWrapOff   = "\x1b[?7l" // DECAWM off: long lines clip instead of wrapping
	AutoWrapOn    = "\x1b[?7h"
	TitlePush     = "\x1b[22;0t"
	TitlePop      = "\x1b[23;0t"
	resetInitial  = "\x1bc"
	titlePrefix   = "\x1b]0;"
	titleSuffix   = "\x07"
	csi           = "\x1b["
	cursorPosTail = ";1H"
)

// CursorRow positions the cursor at the start of a 1-based row.
func CursorRow(row int) string {
	return csi + strconv.Itoa(row) + cursorPosTail
}

// SetTitle returns the OSC sequence that sets the window title. The caller
// must have sanitized title.
func SetTitle(title string) string {
	return titlePrefix + title + titleSuffix
}
