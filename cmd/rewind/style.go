package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	colorAccent = lipgloss.Color("#2CD7C7")
	colorError  = lipgloss.Color("#E74C3C")
	colorMuted  = lipgloss.Color("#5C7A84")
)

type styles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}

// newStyles builds styles for w. With color off every style renders plain text.
func newStyles(w io.Writer, color bool) *styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &styles{
		title: r.NewStyle().Bold(true).Foreground(colorAccent),
		ok:    r.NewStyle().Foreground(colorAccent),
		fail:  r.NewStyle().Foreground(colorError),
		muted: r.NewStyle().Foreground(colorMuted),
	}
}

func (s *styles) mark(ok bool) string {
	if ok {
		return s.ok.Render("✓")
	}
	return s.fail.Render("✗")
}
