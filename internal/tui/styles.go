package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ohare93/pg/internal/ticket"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			MarginBottom(1)

	// Status colors
	pendingColor    = lipgloss.Color("12") // Light blue
	inProgressColor = lipgloss.Color("3")  // Yellow
	blockedColor    = lipgloss.Color("1")  // Red
	completedColor  = lipgloss.Color("2")  // Green
	cancelledColor  = lipgloss.Color("8")  // Gray

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)

// StatusStyle returns the foreground style used for a status everywhere in
// pg's terminal output
func StatusStyle(s ticket.Status) lipgloss.Style {
	var color lipgloss.Color
	switch s {
	case ticket.StatusPending:
		color = pendingColor
	case ticket.StatusInProgress:
		color = inProgressColor
	case ticket.StatusBlocked:
		color = blockedColor
	case ticket.StatusCompleted:
		color = completedColor
	case ticket.StatusCancelled:
		color = cancelledColor
	default:
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(color)
}
