package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("237"))

	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	startingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	crashedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	stoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	outputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	flashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// statusGlyph renders a status as a colored dot plus the status word.
func statusGlyph(status string) string {
	switch status {
	case "running":
		return runningStyle.Render("● running")
	case "starting":
		return startingStyle.Render("◐ starting")
	case "crashed":
		return crashedStyle.Render("✗ crashed")
	default:
		return stoppedStyle.Render("○ stopped")
	}
}
