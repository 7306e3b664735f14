package ui

import "github.com/charmbracelet/lipgloss"

var (
	Navy   = lipgloss.Color("#2c3e50")
	Green  = lipgloss.Color("#27ae60")
	Blue   = lipgloss.Color("#4a7ab0")
	Red    = lipgloss.Color("#e74c3c")
	Silver = lipgloss.Color("#eaeaea")
	Gray   = lipgloss.Color("#7f8c8d")

	TitleStyle = lipgloss.NewStyle().
		Foreground(Silver).
		Background(Blue).
		Bold(true).
		Padding(0, 1)

	AvatarStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Blue)

	ChatStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Blue).
		Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Green).
		Padding(0, 1)

	AssistantStyle = lipgloss.NewStyle().Foreground(Navy).Bold(true)
	UserStyle      = lipgloss.NewStyle().Foreground(Green).Bold(true)
	SeparatorStyle = lipgloss.NewStyle().Foreground(Gray)

	StatusStyle    = lipgloss.NewStyle().Foreground(Gray).Italic(true)
	RecordOnStyle  = lipgloss.NewStyle().Foreground(Silver).Background(Green).Padding(0, 1)
	RecordOffStyle = lipgloss.NewStyle().Foreground(Gray).Padding(0, 1)
	CloseStyle     = lipgloss.NewStyle().Foreground(Silver).Background(Red).Padding(0, 1)
)
