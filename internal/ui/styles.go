package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dnlvgl/zutil/internal/zone"
)

var (
	colorSubtle = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#7B2FBE", Dark: "#BD93F9"}
	colorDanger = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#886600", Dark: "#F1FA8C"}
	colorOrange = lipgloss.AdaptiveColor{Light: "#CC7700", Dark: "#FFB86C"}
	colorTagFg  = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1)

	searchPromptStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent)

	searchStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	searchPlaceholderStyle = lipgloss.NewStyle().
				Foreground(colorSubtle).
				Italic(true)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	tableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent).
				Padding(0, 1)

	detailPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorSubtle).
				Padding(0, 1)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorSubtle).
				Width(10)

	detailValueStyle = lipgloss.NewStyle()

	warningStyle = lipgloss.NewStyle().
			Foreground(colorOrange)

	tagGlobalStyle = lipgloss.NewStyle().
			Foreground(colorTagFg).
			Background(lipgloss.AdaptiveColor{Light: "#0077CC", Dark: "#8BE9FD"}).
			Padding(0, 1)

	tagCurrentStyle = lipgloss.NewStyle().
			Foreground(colorTagFg).
			Background(colorOrange).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDanger)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle).
			MarginTop(1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)
)

// statusColor picks the foreground for a zone status cell.
func statusColor(s zone.Status) lipgloss.TerminalColor {
	switch s {
	case zone.StatusRunning:
		return colorGreen
	case zone.StatusReady, zone.StatusMounted:
		return colorYellow
	case zone.StatusShuttingDown, zone.StatusDown, zone.StatusIncomplete:
		return colorDanger
	default:
		return colorSubtle
	}
}
