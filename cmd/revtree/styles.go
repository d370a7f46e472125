package main

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#B4A7F5"}
	secondaryColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	valueColor     = lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"}
	mutedColor     = lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"}

	headerStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	idStyle = lipgloss.NewStyle().
		Foreground(mutedColor)

	kindStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	valueStyle = lipgloss.NewStyle().
			Foreground(valueColor)
)
