package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles for each kind of line segment.
type Styles struct {
	Prefix    lipgloss.Style
	Dir       lipgloss.Style
	Symlink   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Status    lipgloss.Style
	Help      lipgloss.Style
	Notice    lipgloss.Style
}

// newRenderer returns a lipgloss renderer pinned to the 16-color ANSI
// profile. Whether to color at all is decided once by the caller, so the
// renderer must not probe the output itself.
func newRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	r.SetHasDarkBackground(true)
	return r
}

// DefaultStyles returns the palette: blue bold directories, cyan links, red
// errors, dim connectors, green recent changes.
func DefaultStyles() Styles {
	r := newRenderer()
	return Styles{
		Prefix:    r.NewStyle().Faint(true),
		Dir:       r.NewStyle().Foreground(lipgloss.ANSIColor(4)).Bold(true),
		Symlink:   r.NewStyle().Foreground(lipgloss.ANSIColor(6)),
		Error:     r.NewStyle().Foreground(lipgloss.ANSIColor(1)),
		Highlight: r.NewStyle().Foreground(lipgloss.ANSIColor(2)).Bold(true),
		Status: r.NewStyle().
			Foreground(lipgloss.ANSIColor(7)).
			Background(lipgloss.ANSIColor(8)).
			Bold(true),
		Help:   r.NewStyle().Faint(true),
		Notice: r.NewStyle().Foreground(lipgloss.ANSIColor(3)).Bold(true),
	}
}
