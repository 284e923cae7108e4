package tui

import "github.com/charmbracelet/lipgloss"

// styles groups every lipgloss style used by the view.
type styles struct {
	title      lipgloss.Style
	subtitle   lipgloss.Style
	badge      lipgloss.Style
	sidebar    lipgloss.Style
	sideHeader lipgloss.Style
	docName    lipgloss.Style
	docPreview lipgloss.Style
	chat       lipgloss.Style
	userLabel  lipgloss.Style
	userText   lipgloss.Style
	botLabel   lipgloss.Style
	sources    lipgloss.Style
	status     lipgloss.Style
	notice     lipgloss.Style
	input      lipgloss.Style
	help       lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		subtitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		badge:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("42")).Padding(0, 1),
		sidebar:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		sideHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		docName:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		docPreview: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		chat:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")),
		userLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		userText:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 2),
		botLabel:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		sources:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")).Padding(0, 2),
		status:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		notice:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		input:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		help:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
