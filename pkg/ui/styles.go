package ui

import "github.com/charmbracelet/lipgloss"

// Color palette inspired by the tools this service fronts (nuclei, httpx)
var (
	// Brand colors
	Primary   = lipgloss.Color("#00D4AA") // Teal - brand color
	Secondary = lipgloss.Color("#7D56F4") // Purple

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Configuration display
	ConfigLabelStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Width(15)

	ConfigValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA"))

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Status lines
	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)
)
