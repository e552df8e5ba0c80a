package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tetraminz/emotion_insights/internal/emotion"
)

var (
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorRed     = lipgloss.Color("#FF0000")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorWhite   = lipgloss.Color("#FFFFFF")
)

// One color per emotion label.
var labelColors = map[emotion.Label]lipgloss.Color{
	emotion.Sadness:  lipgloss.Color("#5F87FF"),
	emotion.Joy:      lipgloss.Color("#FFD75F"),
	emotion.Love:     lipgloss.Color("#FF5FAF"),
	emotion.Anger:    lipgloss.Color("#FF5F5F"),
	emotion.Fear:     lipgloss.Color("#AF87FF"),
	emotion.Surprise: lipgloss.Color("#5FFFAF"),
}

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	HeaderCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	DateCellStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

func labelStyle(l emotion.Label) lipgloss.Style {
	color, ok := labelColors[l]
	if !ok {
		color = ColorWhite
	}
	return lipgloss.NewStyle().Foreground(color)
}
