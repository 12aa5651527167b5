package cli

import "github.com/charmbracelet/lipgloss"

// Ocean colour palette 🌊
// Shared wave theme colours for consistent branding across CLI and TUI
var (
	// Core wave colours (deep to bright)
	WaveFoam = lipgloss.Color("#E0FFFF") // Pale foam white
	WaveCyan = lipgloss.Color("#00CED1") // Bright turquoise
	WaveBlue = lipgloss.Color("#1E90FF") // Dodger blue
	WaveDeep = lipgloss.Color("#104E8B") // Deep sea blue

	// Accent colours
	SeaGray = lipgloss.Color("#708090") // Slate gray for subtle text
)
