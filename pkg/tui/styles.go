package tui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/better-ecosystem/better-bar/pkg/theme"
)

type styles struct {
	segment  lipgloss.Style
	sep      lipgloss.Style
	active   lipgloss.Style
	inactive lipgloss.Style
	hint     lipgloss.Style
	classes  map[string]lipgloss.Style
}

// newRenderer returns a lipgloss renderer for w with the color profile the
// environment advertises (NO_COLOR, CLICOLOR_FORCE, TERM).
func newRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.EnvColorProfile())
	return r
}

func newStyles(r *lipgloss.Renderer, t theme.Theme) styles {
	st := styles{
		segment:  r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(t.Foreground)),
		sep:      r.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		active:   r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color(t.Accent)),
		inactive: r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(t.Dim)),
		hint:     r.NewStyle().Foreground(lipgloss.Color(t.Dim)),
		classes:  make(map[string]lipgloss.Style),
	}
	for _, c := range []string{"low", "medium", "high", "warning", "critical", "error", "disconnected", "muted"} {
		s := st.segment.Foreground(lipgloss.Color(t.Class(c)))
		switch c {
		case "critical":
			s = s.Bold(true)
		case "error":
			s = s.Italic(true)
		}
		st.classes[c] = s
	}
	return st
}

// class returns the style for a display class, falling back to the plain
// segment style.
func (s styles) class(name string) lipgloss.Style {
	if st, ok := s.classes[name]; ok {
		return st
	}
	return s.segment
}
