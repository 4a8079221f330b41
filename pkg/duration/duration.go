// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ServerShutdown)
//	cmd.WaitDelay = duration.KillGrace
//
// DO NOT use hardcoded time.Duration values like `10 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// SERVER TIMEOUTS
// ============================================================================

const (
	// ServerReadHeader bounds how long a client may take to send headers (10s).
	ServerReadHeader = 10 * time.Second

	// ServerShutdown is the graceful shutdown window on SIGINT/SIGTERM (15s).
	ServerShutdown = 15 * time.Second
)

// ============================================================================
// CHILD PROCESS LIFECYCLE
// ============================================================================
//
// Relay streams have no run timeout: a long-running scan legitimately holds
// its stream open. These constants only govern teardown after cancellation.
// ============================================================================

const (
	// KillGrace is how long a cancelled child gets between SIGKILL being
	// requested and Wait giving up on pipe drain (5s).
	KillGrace = 5 * time.Second
)

// ============================================================================
// STREAMING
// ============================================================================

const (
	// Heartbeat is the SSE keep-alive comment interval for idle streams (15s).
	// Proxies drop connections that stay silent; slow tools can stay silent
	// for minutes between findings.
	Heartbeat = 15 * time.Second
)
