package report

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Warning lipgloss.Style
	Faint   lipgloss.Style
	Card    lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true),
		Label:   lipgloss.NewStyle().Width(12),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Faint:   lipgloss.NewStyle().Faint(true),
		Card: lipgloss.NewStyle().
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")),
	}
}

// PlainTheme renders without borders or colors
func PlainTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle().Width(12),
		Warning: lipgloss.NewStyle(),
		Faint:   lipgloss.NewStyle(),
		Card:    lipgloss.NewStyle(),
	}
}
