package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/taskq/pkg/models"
)

var (
	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

func styleForPriority(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return priorityHigh
	case models.PriorityMedium:
		return priorityMedium
	case models.PriorityLow:
		return priorityLow
	default:
		return lipgloss.NewStyle()
	}
}

// renderPriority pads the priority name to a fixed width before colouring it
// so that columns stay aligned once ANSI codes are added.
func renderPriority(p models.Priority) string {
	return styleForPriority(p).Render(padRight(string(p), 6))
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
