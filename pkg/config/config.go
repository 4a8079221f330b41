// Package config holds the server's CLI configuration and the optional YAML
// tool-catalog extension file.
package config

import (
	"flag"
	"fmt"

	"github.com/scanrelay/scanrelay/pkg/defaults"
)

// Config holds all CLI configuration options.
type Config struct {
	// Network settings
	ListenAddr string // HTTP listen address

	// Catalog settings
	ToolsFile string // Optional YAML file with extra tool definitions

	// Admission control
	MaxRuns    int // Cap on simultaneous child processes (0 = unlimited)
	SpawnRate  int // Process spawns per second (0 = unlimited)
	SpawnBurst int // Token bucket burst for the spawn limiter

	// Output settings
	Verbose bool // Debug-level logging
	Silent  bool // Suppress the startup banner
	NoColor bool // Disable colored terminal output
}

// ParseFlags parses command line arguments and returns Config.
func ParseFlags(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("scanrelay", flag.ContinueOnError)

	// === NETWORK ===
	fs.StringVar(&cfg.ListenAddr, "addr", defaults.ListenAddr, "HTTP listen address")
	fs.StringVar(&cfg.ListenAddr, "a", defaults.ListenAddr, "Listen address (alias)")

	// === CATALOG ===
	fs.StringVar(&cfg.ToolsFile, "tools", "", "YAML file with extra tool definitions")
	fs.StringVar(&cfg.ToolsFile, "t", "", "Tools file (alias)")

	// === ADMISSION CONTROL ===
	fs.IntVar(&cfg.MaxRuns, "max-runs", defaults.MaxConcurrentRuns, "Max simultaneous tool runs (0 = unlimited)")
	fs.IntVar(&cfg.SpawnRate, "spawn-rate", defaults.SpawnRatePerSecond, "Max process spawns per second (0 = unlimited)")
	fs.IntVar(&cfg.SpawnBurst, "spawn-burst", defaults.SpawnBurst, "Spawn rate burst")

	// === OUTPUT ===
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose logging")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose (alias)")
	fs.BoolVar(&cfg.Silent, "silent", false, "Suppress startup banner")
	fs.BoolVar(&cfg.Silent, "s", false, "Silent (alias)")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&cfg.NoColor, "nc", false, "No color (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address required: use -addr")
	}
	if cfg.MaxRuns < 0 || cfg.SpawnRate < 0 {
		return nil, fmt.Errorf("admission limits must be >= 0")
	}
	if cfg.SpawnBurst <= 0 {
		cfg.SpawnBurst = defaults.SpawnBurst
	}

	return cfg, nil
}
