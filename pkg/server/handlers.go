package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanrelay/scanrelay/pkg/defaults"
	"github.com/scanrelay/scanrelay/pkg/eventstream"
	"github.com/scanrelay/scanrelay/pkg/jsonutil"
	"github.com/scanrelay/scanrelay/pkg/metrics"
	"github.com/scanrelay/scanrelay/pkg/runner"
)

// errorBody is the JSON error envelope for pre-stream failures.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	w.WriteHeader(status)
	_ = jsonutil.MarshalWrite(w, errorBody{Detail: detail})
}

// handleTools serves the catalog with per-request binary availability.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	if err := jsonutil.MarshalWrite(w, s.registry.List()); err != nil {
		s.log.Warn("tools encode failed", slog.String("error", err.Error()))
	}
}

// healthBody is the /healthz response.
type healthBody struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Tools     int    `json:"tools"`
	Available int    `json:"available"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	entries := s.registry.List()
	available := 0
	for _, e := range entries {
		if e.Available {
			available++
		}
	}
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	_ = jsonutil.MarshalWrite(w, healthBody{
		Status:    "ok",
		Version:   defaults.Version,
		Tools:     len(entries),
		Available: available,
	})
}

// handleRun validates the request, spawns the tool, and relays its output
// as one SSE event per line. All validation errors are surfaced before the
// stream opens; once streaming, a non-zero exit is data, not a failure.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")

	desc, err := s.registry.Lookup(name)
	if err != nil {
		s.metrics.Rejected(metrics.ReasonToolNotFound)
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tool: %s", name))
		return
	}

	binPath, err := s.registry.Resolve(desc)
	if err != nil {
		s.metrics.Rejected(metrics.ReasonBinaryNotFound)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	target := query.Get("target")
	if desc.RequiresTarget && target == "" {
		s.metrics.Rejected(metrics.ReasonMissingTarget)
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("%s requires a target (%s)", desc.Name, desc.TargetHint))
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		s.metrics.Rejected(metrics.ReasonCapacity)
		w.Header().Set("Retry-After", strconv.Itoa(defaults.RetryAfterSeconds))
		writeError(w, http.StatusTooManyRequests, "spawn rate limit reached, retry shortly")
		return
	}

	release, ok := s.acquireSlot()
	if !ok {
		s.metrics.Rejected(metrics.ReasonCapacity)
		w.Header().Set("Retry-After", strconv.Itoa(defaults.RetryAfterSeconds))
		writeError(w, http.StatusServiceUnavailable, "run capacity reached, retry shortly")
		return
	}
	defer release()

	// defaultArgs first, then caller args, handed to the builder as one
	// combined slice.
	combined := append(slices.Clone(desc.DefaultArgs), query["args"]...)
	inv := runner.Invocation{
		Tool:  desc.Name,
		RunID: uuid.NewString(),
		Argv:  desc.Args.Build(binPath, target, combined),
	}

	w.Header().Set("X-Run-Id", inv.RunID)
	s.log.Info("run accepted",
		slog.String("tool", desc.Name),
		slog.String("run_id", inv.RunID),
		slog.String("target", target),
		slog.String("remote", r.RemoteAddr))

	start := time.Now()
	s.metrics.RunStarted()
	outcome := s.relay(w, r, inv)
	s.metrics.RunFinished(desc.Name, outcome, time.Since(start))

	s.log.Info("run finished",
		slog.String("tool", desc.Name),
		slog.String("run_id", inv.RunID),
		slog.String("outcome", outcome),
		slog.Duration("elapsed", time.Since(start)))
}

// relay drives the runner's stream into the SSE response and classifies the
// run outcome from the terminal line. Returning cancels the request context,
// which kills the child process, so a disconnected consumer never leaks one.
func (s *Server) relay(w http.ResponseWriter, r *http.Request, inv runner.Invocation) string {
	ctx := r.Context()
	stream := s.runner.Stream(ctx, inv)
	events := eventstream.New(w)

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	var lastLine string
	for {
		select {
		case line, open := <-stream:
			if !open {
				return classifyOutcome(lastLine, ctx.Err() != nil)
			}
			lastLine = line
			if err := events.Data(line); err != nil {
				// Consumer went away mid-stream. Transport failures are
				// logged, not surfaced; the child is reaped via ctx.
				s.log.Info("consumer disconnected",
					slog.String("run_id", inv.RunID),
					slog.String("error", err.Error()))
				return metrics.OutcomeCancelled
			}
			s.metrics.LineRelayed(inv.Tool)
		case <-ticker.C:
			if err := events.Comment("keepalive"); err != nil {
				s.log.Info("consumer disconnected",
					slog.String("run_id", inv.RunID),
					slog.String("error", err.Error()))
				return metrics.OutcomeCancelled
			}
		case <-ctx.Done():
			return metrics.OutcomeCancelled
		}
	}
}

// classifyOutcome derives the metrics outcome from the last relayed line.
func classifyOutcome(lastLine string, cancelled bool) string {
	switch {
	case cancelled:
		return metrics.OutcomeCancelled
	case lastLine == runner.ExitStatusLine(0):
		return metrics.OutcomeOK
	case strings.HasPrefix(lastLine, "[process exited with status "):
		return metrics.OutcomeNonZero
	case strings.HasPrefix(lastLine, "[failed to start "):
		return metrics.OutcomeSpawnError
	default:
		return metrics.OutcomeCancelled
	}
}
