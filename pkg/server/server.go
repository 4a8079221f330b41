// Package server is the HTTP boundary: it validates run requests against the
// tool registry, enforces admission control, and drives the runner's relay
// stream into a server-sent event response.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scanrelay/scanrelay/pkg/duration"
	"github.com/scanrelay/scanrelay/pkg/metrics"
	"github.com/scanrelay/scanrelay/pkg/registry"
	"github.com/scanrelay/scanrelay/pkg/runner"
)

// Streamer spawns a tool invocation and relays its output.
// Satisfied by *runner.Runner; tests substitute a fake to count spawns.
type Streamer interface {
	Stream(ctx context.Context, inv runner.Invocation) <-chan string
}

// Options wires the server's collaborators. Registry and Runner are
// required; everything else has usable zero-value behavior.
type Options struct {
	Registry *registry.Registry
	Runner   Streamer
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	// MaxRuns caps simultaneous relay streams. 0 disables the cap.
	MaxRuns int

	// SpawnRate/SpawnBurst cap process spawns per second. SpawnRate 0
	// disables rate limiting.
	SpawnRate  int
	SpawnBurst int

	// Heartbeat is the keep-alive comment interval for idle streams.
	// 0 uses the standard interval.
	Heartbeat time.Duration
}

// Server routes HTTP requests onto the registry and runner.
type Server struct {
	registry  *registry.Registry
	runner    Streamer
	metrics   *metrics.Collector
	log       *slog.Logger
	limiter   *rate.Limiter
	slots     chan struct{}
	heartbeat time.Duration
	mux       *http.ServeMux
}

// New builds the server and its routing table.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	hb := opts.Heartbeat
	if hb == 0 {
		hb = duration.Heartbeat
	}

	s := &Server{
		registry:  opts.Registry,
		runner:    opts.Runner,
		metrics:   m,
		log:       log,
		heartbeat: hb,
		mux:       http.NewServeMux(),
	}
	if opts.MaxRuns > 0 {
		s.slots = make(chan struct{}, opts.MaxRuns)
	}
	if opts.SpawnRate > 0 {
		burst := opts.SpawnBurst
		if burst <= 0 {
			burst = opts.SpawnRate
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.SpawnRate), burst)
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /tools", s.handleTools)
	s.mux.HandleFunc("GET /run/{tool}", s.handleRun)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", s.staticHandler()))
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.requestLogger(s.mux))
}

// acquireSlot reserves a run slot without blocking.
// Returns a release func, or false when the cap is reached.
func (s *Server) acquireSlot() (func(), bool) {
	if s.slots == nil {
		return func() {}, true
	}
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, true
	default:
		return nil, false
	}
}
