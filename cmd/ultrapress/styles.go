package main

import "github.com/charmbracelet/lipgloss"

// GitHub terminal light theme palette.
var (
	colorFg      = lipgloss.Color("#24292f")
	colorMuted   = lipgloss.Color("#656d76")
	colorAccent  = lipgloss.Color("#0969da")
	colorError   = lipgloss.Color("#cf222e")
	colorSuccess = lipgloss.Color("#1a7f37")
)

var (
	userPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	botPrefixStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	dimStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	headerStyle     = lipgloss.NewStyle().Bold(true).Underline(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(colorError)
)
