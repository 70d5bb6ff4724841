package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan — primary accent
	colorSuccess = lipgloss.Color("#00E676") // Green — completed
	colorDanger  = lipgloss.Color("#FF5252") // Red — errors/failures
	colorAccent  = lipgloss.Color("#FFD700") // Gold — attention
	colorMuted   = lipgloss.Color("#636363") // Gray — de-emphasized
	colorWhite   = lipgloss.Color("#EEEEEE") // Off-white — primary text
	colorSurface = lipgloss.Color("#1E1E2E") // Dark surface — status bar bg
)

// Status icons for session outcomes.
const (
	iconDone    = "✓"
	iconFailed  = "✗"
	iconWorking = "◎"
	iconWaiting = "·"
)

var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleOK = lipgloss.NewStyle().
		Foreground(colorSuccess)

	styleFailed = lipgloss.NewStyle().
			Foreground(colorDanger)

	styleRecovered = lipgloss.NewStyle().
			Foreground(colorAccent)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleHelp = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
)
