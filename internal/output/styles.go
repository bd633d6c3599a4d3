package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	primaryColor   = lipgloss.Color("39")  // Blue
	secondaryColor = lipgloss.Color("245") // Gray
	accentColor    = lipgloss.Color("212") // Pink
	successColor   = lipgloss.Color("82")  // Green
	errorColor     = lipgloss.Color("196") // Red
)

// styles are bound to one writer; the renderer drops colors when that
// writer is not a terminal.
type styles struct {
	title    lipgloss.Style
	category lipgloss.Style
	tag      lipgloss.Style
	section  lipgloss.Style
	muted    lipgloss.Style
	link     lipgloss.Style
	err      lipgloss.Style
	box      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(primaryColor),
		category: r.NewStyle().
			Foreground(accentColor).
			Bold(true),
		tag: r.NewStyle().
			Foreground(secondaryColor),
		section: r.NewStyle().
			Foreground(secondaryColor).
			Bold(true),
		muted: r.NewStyle().
			Foreground(secondaryColor).
			Italic(true),
		link: r.NewStyle().
			Foreground(successColor).
			Underline(true),
		err: r.NewStyle().
			Foreground(errorColor),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1),
	}
}
