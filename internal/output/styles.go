package output

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorSuccess = lipgloss.Color("#04B575")
	colorWarning = lipgloss.Color("#FFB86C")
	colorDanger  = lipgloss.Color("#FF5F87")
	colorMuted   = lipgloss.Color("#6C7086")
	colorBorder  = lipgloss.Color("#45475A")
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

var sectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorPrimary).
	MarginTop(1)

var labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(30)

var valueStyle = lipgloss.NewStyle().Bold(true)

var mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

var headlineStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder).
	Padding(0, 2)

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

// probabilityStyle colors a success probability against the target
func probabilityStyle(p, target float64) lipgloss.Style {
	switch {
	case p >= target:
		return valueStyle.Foreground(colorSuccess)
	case p >= target-0.15:
		return valueStyle.Foreground(colorWarning)
	default:
		return valueStyle.Foreground(colorDanger)
	}
}

// priorityStyle colors a gap factor priority
func priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "medium":
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return mutedStyle
	}
}
