// Package tui implements an interactive terminal browser for validation
// results, rendered as a Bubble Tea app.
package tui

import "github.com/charmbracelet/lipgloss"

// Finding glyphs — convey meaning without relying on color alone.
const (
	GlyphError   = "✗"
	GlyphWarning = "⚠"
	GlyphInfo    = "ℹ"
	GlyphValid   = "✓"
	GlyphCursor  = "▸"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var validBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorGreen).
	Padding(0, 1)

var invalidBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite).
	Background(colorRed).
	Padding(0, 1)

// --- Finding list styles ---

var (
	findingNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	findingSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	findingError = lipgloss.NewStyle().
			Foreground(colorRed)

	findingWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	findingInfo = lipgloss.NewStyle().
			Foreground(colorCyan)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// --- Detail panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)
