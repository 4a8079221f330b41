// Package runner executes a resolved tool invocation as a child process and
// relays its merged stdout/stderr as a live, line-ordered stream.
//
// The relay is single-pass and forward-only: each line becomes available once
// the child writes it, and a bounded channel between the pipe reader and the
// consumer means a slow consumer throttles the reader instead of growing
// memory. Cancelling the context terminates the child, so a disconnected
// HTTP consumer never leaks a process.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/scanrelay/scanrelay/pkg/defaults"
	"github.com/scanrelay/scanrelay/pkg/duration"
)

// Invocation is a fully resolved argument vector ready to spawn.
// Argv[0] is the resolved binary path. Owned by a single request.
type Invocation struct {
	Tool  string
	RunID string
	Argv  []string
}

// Config holds runner tuning knobs.
type Config struct {
	// BufferLines is the relay channel capacity between the pipe reader
	// and the consumer.
	BufferLines int

	// MaxLineBytes bounds a single relayed line.
	MaxLineBytes int

	// KillGrace bounds how long Wait blocks on pipe drain after the
	// child is killed.
	KillGrace time.Duration
}

// DefaultConfig returns the standard runner configuration.
func DefaultConfig() *Config {
	return &Config{
		BufferLines:  defaults.StreamBufferLines,
		MaxLineBytes: defaults.MaxLineBytes,
		KillGrace:    duration.KillGrace,
	}
}

// Runner spawns child processes and streams their output.
type Runner struct {
	cfg *Config
	log *slog.Logger
}

// New creates a runner. cfg may be nil for defaults; log may be nil to
// discard internal diagnostics.
func New(cfg *Config, log *slog.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{cfg: cfg, log: log}
}

// Stream spawns the invocation and returns its relay stream. The channel
// yields, in order: one banner line echoing the quoted command, each line of
// merged stdout/stderr as the child writes it, and one terminal status line.
// The channel is closed once the child has exited and all buffered output is
// drained. A spawn failure is reported in-stream rather than as an error:
// the stream carries the failure line and then closes without output lines.
//
// Cancelling ctx kills the child process and ends the stream. A non-zero
// exit is data, not an error: it only changes the terminal status line.
func (r *Runner) Stream(ctx context.Context, inv Invocation) <-chan string {
	out := make(chan string, r.cfg.BufferLines)
	go r.run(ctx, inv, out)
	return out
}

func (r *Runner) run(ctx context.Context, inv Invocation, out chan<- string) {
	defer close(out)

	// emit blocks until the consumer takes the line or the request dies.
	emit := func(line string) bool {
		select {
		case out <- line:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !emit("$ " + QuoteCommand(inv.Argv)) {
		return
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)
	cmd.Stdin = nil
	cmd.WaitDelay = r.cfg.KillGrace

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		emit(fmt.Sprintf("[failed to start %s: %v]", inv.Tool, err))
		return
	}
	// StdoutPipe assigned the write end to cmd.Stdout; pointing Stderr at
	// the same file merges both streams in write order.
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		r.log.Error("spawn failed",
			slog.String("tool", inv.Tool),
			slog.String("run_id", inv.RunID),
			slog.String("error", err.Error()))
		emit(fmt.Sprintf("[failed to start %s: %v]", inv.Tool, err))
		return
	}

	r.log.Info("process started",
		slog.String("tool", inv.Tool),
		slog.String("run_id", inv.RunID),
		slog.Int("pid", cmd.Process.Pid))

	lineCap := r.cfg.MaxLineBytes
	if lineCap <= 0 {
		lineCap = defaults.MaxLineBytes
	}
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), max(lineCap, 64*1024))
	scanner.Split(chunkLines(lineCap))
	for scanner.Scan() {
		line := strings.TrimRight(strings.ToValidUTF8(scanner.Text(), "�"), " \t\r")
		if !emit(line) {
			break
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		r.log.Warn("output read error",
			slog.String("tool", inv.Tool),
			slog.String("run_id", inv.RunID),
			slog.String("error", err.Error()))
	}

	// Always reap the child, even when the consumer is gone.
	waitErr := cmd.Wait()
	status := cmd.ProcessState.ExitCode()
	r.log.Info("process exited",
		slog.String("tool", inv.Tool),
		slog.String("run_id", inv.RunID),
		slog.Int("status", status))
	if waitErr != nil && status < 0 && ctx.Err() == nil {
		r.log.Warn("wait error",
			slog.String("tool", inv.Tool),
			slog.String("error", waitErr.Error()))
	}

	emit(ExitStatusLine(status))
}

// chunkLines is a bufio.SplitFunc that behaves like bufio.ScanLines but caps
// a token at maxBytes: a longer line is relayed as multiple chunks instead of
// stopping the scan. Without the cap the scanner would stop with ErrTooLong
// and the child would wedge writing the unread remainder into a full pipe.
func chunkLines(maxBytes int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 && i <= maxBytes {
			return i + 1, data[:i], nil
		}
		if len(data) >= maxBytes {
			return maxBytes, data[:maxBytes], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

// ExitStatusLine formats the terminal status line for an exit code.
func ExitStatusLine(status int) string {
	return fmt.Sprintf("[process exited with status %d]", status)
}
