// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all runtime configuration defaults.
//
// Usage:
//
//	cfg.MaxRuns = defaults.MaxConcurrentRuns
//	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
//
// DO NOT use hardcoded values like `MaxRuns: 8` anywhere.
// Instead, reference the appropriate constant from this package.
package defaults

// Version is the current scanrelay version.
const Version = "0.4.1"

// ============================================================================
// SERVER SETTINGS
// ============================================================================

const (
	// ListenAddr is the default HTTP listen address.
	ListenAddr = ":8800"

	// MaxHeaderBytes bounds request header size (64KB).
	MaxHeaderBytes = 64 * 1024
)

// ============================================================================
// ADMISSION CONTROL
// ============================================================================
//
// Every accepted /run request spawns one child process. These caps bound
// the total process load a single instance will take on.
// ============================================================================

const (
	// MaxConcurrentRuns is the default cap on simultaneous child processes (8).
	MaxConcurrentRuns = 8

	// SpawnRatePerSecond is the default cap on process spawns per second (4).
	SpawnRatePerSecond = 4

	// SpawnBurst is the token bucket burst for spawn rate limiting (4).
	SpawnBurst = 4

	// RetryAfterSeconds is advertised on capacity rejections (5).
	RetryAfterSeconds = 5
)

// ============================================================================
// RELAY STREAM SETTINGS
// ============================================================================

const (
	// StreamBufferLines is the bounded buffer between the child-process
	// reader and the network writer. A slow consumer backpressures the
	// reader once this many lines are queued (64).
	StreamBufferLines = 64

	// MaxLineBytes caps a single relayed line (1MB). Longer output is
	// chunked into multiple relayed lines rather than stalling the relay.
	// Recon tools occasionally emit very long JSON lines (httpx -json,
	// nuclei -jsonl).
	MaxLineBytes = 1024 * 1024
)

// ============================================================================
// CONTENT TYPES
// ============================================================================

const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"
)
