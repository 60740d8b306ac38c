package cmd

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles colour command output when it goes to a terminal. Output to
// anything else is left plain.
type styles struct {
	path    lipgloss.Style
	problem lipgloss.Style
	ok      lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		path:    r.NewStyle().Bold(true),
		problem: r.NewStyle().Foreground(lipgloss.Color("9")),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		label:   r.NewStyle().Foreground(lipgloss.Color("12")),
		dim:     r.NewStyle().Faint(true),
	}
}
