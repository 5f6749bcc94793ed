package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#7a8599")
	colorError   = lipgloss.Color("#e53935")
	colorSuccess = lipgloss.Color("#8BC34A")
)

type styles struct {
	title     lipgloss.Style
	section   lipgloss.Style
	label     lipgloss.Style
	focused   lipgloss.Style
	hint      lipgloss.Style
	errorText lipgloss.Style
	success   lipgloss.Style
	help      lipgloss.Style
}

func defaultStyles() styles {
	label := lipgloss.NewStyle().Width(18)
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		section:   lipgloss.NewStyle().Bold(true).Underline(true),
		label:     label,
		focused:   label.Bold(true).Foreground(colorAccent),
		hint:      lipgloss.NewStyle().Foreground(colorMuted),
		errorText: lipgloss.NewStyle().Foreground(colorError),
		success:   lipgloss.NewStyle().Foreground(colorSuccess),
		help:      lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
}
