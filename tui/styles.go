package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	greetingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 2)

	boxChecked   = "☑"
	boxUnchecked = "☐"
)
