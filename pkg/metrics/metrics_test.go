package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of a counter family, optionally filtered by
// one label value.
func counterValue(t *testing.T, c *Collector, name, labelValue string) float64 {
	t.Helper()
	families, err := c.Gather()
	require.NoError(t, err)

	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue != "" {
				match := false
				for _, lp := range m.GetLabel() {
					if lp.GetValue() == labelValue {
						match = true
					}
				}
				if !match {
					continue
				}
			}
			if m.GetCounter() != nil {
				sum += m.GetCounter().GetValue()
			}
			if m.GetGauge() != nil {
				sum += m.GetGauge().GetValue()
			}
		}
	}
	return sum
}

func TestRunLifecycleCounters(t *testing.T) {
	c := New()

	c.RunStarted()
	assert.Equal(t, 1.0, counterValue(t, c, "scanrelay_active_runs", ""))

	c.RunFinished("nmap", OutcomeOK, 2*time.Second)
	assert.Equal(t, 0.0, counterValue(t, c, "scanrelay_active_runs", ""))
	assert.Equal(t, 1.0, counterValue(t, c, "scanrelay_runs_total", "nmap"))
}

func TestRejectionCounter(t *testing.T) {
	c := New()

	c.Rejected(ReasonMissingTarget)
	c.Rejected(ReasonMissingTarget)
	c.Rejected(ReasonToolNotFound)

	assert.Equal(t, 2.0, counterValue(t, c, "scanrelay_rejections_total", ReasonMissingTarget))
	assert.Equal(t, 1.0, counterValue(t, c, "scanrelay_rejections_total", ReasonToolNotFound))
}

func TestLinesRelayed(t *testing.T) {
	c := New()

	for i := 0; i < 5; i++ {
		c.LineRelayed("httpx")
	}
	assert.Equal(t, 5.0, counterValue(t, c, "scanrelay_lines_relayed_total", "httpx"))
}

func TestHandlerServesScrape(t *testing.T) {
	c := New()
	c.Rejected(ReasonCapacity)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "scanrelay_rejections_total")
}
