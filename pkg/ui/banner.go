// Package ui renders the terminal startup output: banner, config summary,
// and styled status lines. Everything goes to stderr so piped stdout stays
// machine-readable.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/scanrelay/scanrelay/pkg/defaults"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/scanrelay/scanrelay/pkg/ui.Version=1.0.0"
// Version tracks defaults.Version unless overridden.
var (
	Version   = defaults.Version
	BuildDate = "2026-08-12"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		// Use ASCII profile to disable colors
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ASCII art banner - nuclei/httpx inspired design
const bannerArt = `
   ______________ _____  ________  / /___ ___  __
  / ___/ ___/ __ '/ __ \/ ___/ _ \/ / __ '/ / / /
 (__  ) /__/ /_/ / / / / /  /  __/ / /_/ / /_/ /
/____/\___/\__,_/_/ /_/_/   \___/_/\__,_/\__, /
                                        /____/
`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info
func PrintBanner() {
	if IsSilent() {
		return
	}
	lines := strings.Split(bannerArt, "\n")
	for _, line := range lines {
		if line != "" {
			fmt.Fprintln(os.Stderr, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(os.Stderr, "                  v%s\n\n", VersionStyle.Render(Version))
}

// printOption prints a configuration option in ffuf/nuclei style
// Format:  :: Option              : Value
func printOption(name, value string) {
	fmt.Fprintf(os.Stderr, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner prints the configuration summary before serving starts.
// Uses ordered keys for consistent display.
func PrintConfigBanner(options map[string]string) {
	if IsSilent() {
		return
	}

	order := []string{
		"Listen", "Tools", "Available", "Tools File",
		"Max Runs", "Spawn Rate", "Metrics",
	}

	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(name, value)
			printed[name] = true
		}
	}
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(name, value)
		}
	}

	fmt.Fprintf(os.Stderr, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(os.Stderr, PassStyle.Render("  [+] "+message))
}

// PrintError prints an error message (to stderr)
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, FailStyle.Render("  [X] "+message))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	fmt.Fprintln(os.Stderr, WarnStyle.Render("  [!] "+message))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(os.Stderr, HelpStyle.Render("  [i] "+message))
}
