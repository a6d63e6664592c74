package prompt

import "github.com/charmbracelet/lipgloss"

// Theme holds the prompt styles.
type Theme struct {
	Title     lipgloss.Style
	Item      lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
	Cancel    lipgloss.Style
	Quit      lipgloss.Style
	Banner    lipgloss.Style
	Danger    lipgloss.Style
}

func NewDefaultTheme() Theme {
	red := lipgloss.Color("#FF5F5F")

	return Theme{
		Title:     lipgloss.NewStyle().MarginLeft(2).Bold(true),
		Item:      lipgloss.NewStyle().PaddingLeft(4),
		Selected:  lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170")),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Cancel:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		Quit:      lipgloss.NewStyle().Margin(1, 0, 1, 2),
		Banner: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(red).
			Padding(0, 2),
		Danger: lipgloss.NewStyle().Bold(true).Foreground(red),
	}
}
