package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff00ff")).
			Background(lipgloss.Color("#1a001a"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	metricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	metricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	keyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	statusGood = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusWarn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusBad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// separator draws a muted rule with a centre mark.
func separator(width int) string {
	mid := width / 2
	if mid < 3 {
		return ""
	}
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", max(width-mid-3, 0))
	return subtle.Render(left + " ◆ " + right)
}
