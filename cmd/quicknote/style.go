package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// palette colors CLI output according to the stored theme preference.
// Colors are dropped automatically when w is not a terminal.
type palette struct {
	title lipgloss.Style
	id    lipgloss.Style
	date  lipgloss.Style
	tag   lipgloss.Style
	muted lipgloss.Style
}

func newPalette(w io.Writer, dark bool) palette {
	r := lipgloss.NewRenderer(w)

	primary, secondary, accent, muted := lipgloss.Color("#1F2937"), lipgloss.Color("#2563EB"), lipgloss.Color("#B45309"), lipgloss.Color("#6B7280")
	if dark {
		primary, secondary, accent, muted = lipgloss.Color("#F9FAFB"), lipgloss.Color("#60A5FA"), lipgloss.Color("#F59E0B"), lipgloss.Color("#9CA3AF")
	}

	return palette{
		title: r.NewStyle().Foreground(primary).Bold(true),
		id:    r.NewStyle().Foreground(secondary),
		date:  r.NewStyle().Foreground(muted),
		tag:   r.NewStyle().Foreground(accent),
		muted: r.NewStyle().Foreground(muted).Italic(true),
	}
}
