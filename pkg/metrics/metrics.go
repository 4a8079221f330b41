// Package metrics exposes run metrics for Prometheus scraping.
// Counters for runs and rejections, a gauge for in-flight child processes,
// and histograms for run duration. Registered on a private registry so the
// process does not pollute (or inherit from) the default one.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Run outcome label values.
const (
	OutcomeOK         = "ok"          // child exited zero
	OutcomeNonZero    = "nonzero"     // child exited non-zero (still a completed run)
	OutcomeSpawnError = "spawn_error" // process creation failed
	OutcomeCancelled  = "cancelled"   // consumer disconnected, child killed
)

// Rejection reason label values.
const (
	ReasonToolNotFound   = "tool_not_found"
	ReasonBinaryNotFound = "binary_not_found"
	ReasonMissingTarget  = "missing_target"
	ReasonCapacity       = "capacity"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	rejectionsTotal *prometheus.CounterVec
	linesTotal      *prometheus.CounterVec
	activeRuns      prometheus.Gauge
	runDuration     *prometheus.HistogramVec
}

// New creates a collector with all metrics registered.
func New() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanrelay_runs_total",
			Help: "Total tool runs by outcome",
		},
		[]string{"tool", "outcome"},
	)

	c.rejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanrelay_rejections_total",
			Help: "Run requests rejected before a process was spawned",
		},
		[]string{"reason"},
	)

	c.linesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanrelay_lines_relayed_total",
			Help: "Output lines relayed to consumers",
		},
		[]string{"tool"},
	)

	c.activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanrelay_active_runs",
			Help: "Child processes currently running",
		},
	)

	c.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanrelay_run_duration_seconds",
			Help:    "Run duration distribution in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"tool"},
	)

	c.registry.MustRegister(
		c.runsTotal,
		c.rejectionsTotal,
		c.linesTotal,
		c.activeRuns,
		c.runDuration,
	)
	return c
}

// Handler returns the scrape endpoint handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RunStarted records a spawned child process.
func (c *Collector) RunStarted() {
	c.activeRuns.Inc()
}

// RunFinished records a completed run with its outcome and duration.
func (c *Collector) RunFinished(tool, outcome string, elapsed time.Duration) {
	c.activeRuns.Dec()
	c.runsTotal.WithLabelValues(tool, outcome).Inc()
	c.runDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// Rejected records a pre-spawn rejection.
func (c *Collector) Rejected(reason string) {
	c.rejectionsTotal.WithLabelValues(reason).Inc()
}

// LineRelayed records one relayed output line.
func (c *Collector) LineRelayed(tool string) {
	c.linesTotal.WithLabelValues(tool).Inc()
}

// Gather exposes the underlying registry's gather for tests.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}
