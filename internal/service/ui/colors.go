package ui

import "github.com/charmbracelet/lipgloss"

// ANSI palette colors keep the output readable on light and dark terminals.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	DescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	FlagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// ToolStyle marks replies backed by a catalog search.
	ToolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	ScoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	BridgeNote = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)
