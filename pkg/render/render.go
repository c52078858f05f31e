// Package render turns tree entries into printable, width-bounded lines.
//
// Every line is built from plain segments first. Segments are fitted into the
// terminal width left to right, and only the surviving text is styled, so
// escape sequences never count toward the width and are never cut in half.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/livetree/pkg/tree"
)

// DefaultWidth is used when the terminal reports no usable width.
const DefaultWidth = 80

// Config controls rendering.
type Config struct {
	UseColor bool
	Width    int // columns; values below 1 fall back to DefaultWidth
}

// Renderer formats entries and the status rows.
type Renderer struct {
	cfg    Config
	styles Styles
}

// New creates a Renderer.
func New(cfg Config) *Renderer {
	r := &Renderer{cfg: cfg, styles: DefaultStyles()}
	r.SetWidth(cfg.Width)
	return r
}

// Width returns the effective width.
func (r *Renderer) Width() int {
	return r.cfg.Width
}

// SetWidth updates the width after a resize.
func (r *Renderer) SetWidth(w int) {
	if w < 1 {
		w = DefaultWidth
	}
	r.cfg.Width = w
}

// UseColor reports whether output is styled.
func (r *Renderer) UseColor() bool {
	return r.cfg.UseColor
}

type segment struct {
	text  string
	style *lipgloss.Style
}

// fit lays segments into width columns. The segment that crosses the limit
// is cut and ends in an ellipsis; later segments are dropped. A segment that
// fills the width exactly is cut as well when more text follows it, so a
// dropped name or symlink target is never silent.
func (r *Renderer) fit(segs []segment) string {
	budget := r.cfg.Width
	var b strings.Builder
	for i, s := range segs {
		if budget <= 0 {
			break
		}
		if s.text == "" {
			continue
		}
		text := s.text
		w := runewidth.StringWidth(text)
		switch {
		case w > budget:
			text = Truncate(text, budget)
			w = budget
		case w == budget && moreText(segs[i+1:]):
			text = cutForEllipsis(text, budget)
			w = budget
		}
		budget -= w
		b.WriteString(r.paint(s.style, text))
	}
	return b.String()
}

func moreText(segs []segment) bool {
	for _, s := range segs {
		if s.text != "" {
			return true
		}
	}
	return false
}

func (r *Renderer) paint(style *lipgloss.Style, text string) string {
	if !r.cfg.UseColor || style == nil {
		return text
	}
	return style.Render(text)
}

// Line renders one entry. highlighted marks a recent change.
func (r *Renderer) Line(e tree.Entry, highlighted bool) string {
	name := Sanitize(e.Name)
	segs := []segment{{text: e.Prefix, style: &r.styles.Prefix}}

	nameStyle := r.nameStyle(e, highlighted)
	switch {
	case e.Err != "":
		segs = append(segs, segment{
			text:  name + " [" + Sanitize(e.Err) + "]",
			style: &r.styles.Error,
		})
	case e.IsSymlink:
		segs = append(segs, segment{text: name, style: nameStyle})
		if e.SymlinkTarget != "" {
			segs = append(segs, segment{text: " -> " + Sanitize(e.SymlinkTarget)})
		}
	default:
		segs = append(segs, segment{text: name, style: nameStyle})
	}
	return r.fit(segs)
}

func (r *Renderer) nameStyle(e tree.Entry, highlighted bool) *lipgloss.Style {
	switch {
	case highlighted:
		return &r.styles.Highlight
	case e.IsSymlink:
		return &r.styles.Symlink
	case e.IsDir:
		return &r.styles.Dir
	}
	return nil
}

// Lines renders entries in order. highlighted may be nil.
func (r *Renderer) Lines(entries []tree.Entry, highlighted func(path string) bool) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = r.Line(e, highlighted != nil && highlighted(e.Path))
	}
	return out
}

// TruncationLine tells the user the listing was cut at shown entries.
func (r *Renderer) TruncationLine(shown int) string {
	text := fmt.Sprintf("... listing stopped after %d entries (raise --max-entries to see more)", shown)
	return r.fit([]segment{{text: text, style: &r.styles.Notice}})
}

// Message renders a plain notice line, such as the root-deleted banner.
func (r *Renderer) Message(text string) string {
	return r.fit([]segment{{text: Sanitize(text), style: &r.styles.Notice}})
}

// Help renders the key reference bar.
func (r *Renderer) Help(highlight time.Duration) string {
	text := fmt.Sprintf(" q quit  j/k scroll  PgUp/PgDn page  Home/End jump  r clear  +/- highlight %s",
		highlight.Round(time.Second))
	return r.fit([]segment{{text: PadRight(text, r.cfg.Width), style: &r.styles.Help}})
}

// Status describes the state shown on the status bar.
type Status struct {
	Path       string    // already collapsed for display
	Entries    int       // entries shown
	Truncated  bool      // the listing hit the entry cap
	LastChange time.Time // zero before the first change
	Message    string    // replaces the change part, e.g. a watcher error

	// Scroll position; Visible == 0 disables the scroll hint.
	Offset  int
	Visible int
	Total   int
}

// Status renders the status bar padded to the full width.
func (r *Renderer) Status(s Status) string {
	return r.fit([]segment{{text: PadRight(StatusText(s), r.cfg.Width), style: &r.styles.Status}})
}

// StatusText is the unstyled, unpadded status bar text.
func StatusText(s Status) string {
	count := fmt.Sprintf("%d entries", s.Entries)
	switch {
	case s.Truncated:
		count = fmt.Sprintf("showing %d entries (truncated)", s.Entries)
	case s.Visible > 0 && s.Total > s.Visible:
		count = fmt.Sprintf("%d entries (%d visible, scroll %d/%d)",
			s.Entries, s.Visible, s.Offset+1, s.Total-s.Visible+1)
	}

	change := "No changes yet"
	if !s.LastChange.IsZero() {
		change = "Last change: " + s.LastChange.Format("15:04:05")
	}
	if s.Message != "" {
		change = s.Message
	}
	return fmt.Sprintf(" Watching: %s  |  %s  |  %s", Sanitize(s.Path), count, Sanitize(change))
}

// TitleWidth bounds the window title.
const TitleWidth = 60

// Title returns the window title text for root.
func Title(root string) string {
	return "Live Tree of " + TruncateMiddle(Sanitize(root), TitleWidth)
}
