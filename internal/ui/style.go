// Package ui provides the terminal user interface for movemouse.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color scheme used throughout the application
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Warning:   lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#F2C94C"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Style represents a collection of styles used in the application
type Style struct {
	Title        lipgloss.Style
	Label        lipgloss.Style
	Value        lipgloss.Style
	DisabledItem lipgloss.Style
	Help         lipgloss.Style
	Error        lipgloss.Style
	Countdown    lipgloss.Style
	Message      lipgloss.Style

	// Badges by state family.
	BadgeActive  lipgloss.Style
	BadgeWaiting lipgloss.Style
	BadgeIdle    lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	badge := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color("#FFFFFF"))

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Label: base.
			Foreground(defaultColors.Subtle),

		Value: lipgloss.NewStyle().
			Bold(true),

		DisabledItem: base.
			Foreground(defaultColors.Subtle).
			Strikethrough(true),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		Countdown: lipgloss.NewStyle().
			Foreground(defaultColors.Highlight).
			Bold(true),

		Message: base.
			Italic(true).
			Foreground(defaultColors.Highlight),

		BadgeActive:  badge.Background(lipgloss.Color("#2E9E5B")),
		BadgeWaiting: badge.Background(lipgloss.Color("#C98A00")),
		BadgeIdle:    badge.Background(lipgloss.Color("#5A5A5A")),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()
