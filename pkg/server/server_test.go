package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanrelay/scanrelay/pkg/defaults"
	"github.com/scanrelay/scanrelay/pkg/jsonutil"
	"github.com/scanrelay/scanrelay/pkg/metrics"
	"github.com/scanrelay/scanrelay/pkg/registry"
	"github.com/scanrelay/scanrelay/pkg/runner"
	"github.com/scanrelay/scanrelay/pkg/testutil"
)

// fakeStreamer records every invocation and plays back a scripted stream.
// When block is non-nil the stream stays open until it is closed, which lets
// capacity tests hold a run slot.
type fakeStreamer struct {
	mu    sync.Mutex
	calls []runner.Invocation
	lines []string
	block chan struct{}
}

func (f *fakeStreamer) Stream(ctx context.Context, inv runner.Invocation) <-chan string {
	f.mu.Lock()
	f.calls = append(f.calls, inv)
	f.mu.Unlock()

	out := make(chan string, len(f.lines)+1)
	go func() {
		defer close(out)
		for _, line := range f.lines {
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if f.block != nil {
			select {
			case <-f.block:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

func (f *fakeStreamer) spawnCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStreamer) lastCall(t *testing.T) runner.Invocation {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func testCatalog() []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:           "echo",
			Binary:         "echo-bin",
			Description:    "echoes things",
			RequiresTarget: true,
			TargetHint:     "domain",
			DefaultArgs:    []string{"-silent"},
			Args:           registry.ArgSpec{Kind: registry.BuilderFlag, Flag: "-u"},
		},
		{
			Name:        "noop",
			Binary:      "noop-bin",
			Description: "needs no target",
			Args:        registry.ArgSpec{Kind: registry.BuilderDefault},
		},
		{
			Name:           "ghost",
			Binary:         "ghost-bin",
			Description:    "binary never installed",
			RequiresTarget: true,
			Args:           registry.ArgSpec{Kind: registry.BuilderDefault},
		},
	}
}

func fakeLook(available ...string) registry.LookPathFunc {
	set := make(map[string]bool, len(available))
	for _, name := range available {
		set[name] = true
	}
	return func(file string) (string, error) {
		if set[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
}

func newTestServer(t *testing.T, streamer Streamer, mutate func(*Options)) *Server {
	t.Helper()
	reg, err := registry.New(testCatalog(), fakeLook("echo-bin", "noop-bin"))
	require.NoError(t, err)

	opts := Options{
		Registry:  reg,
		Runner:    streamer,
		Metrics:   metrics.New(),
		Logger:    slog.New(slog.DiscardHandler),
		Heartbeat: time.Hour,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestToolsListsCatalogWithAvailability(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{}, nil)
	rec := doGet(t, s, "/tools")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaults.ContentTypeJSON, rec.Header().Get("Content-Type"))

	var entries []registry.Entry
	require.NoError(t, jsonutil.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)

	assert.Equal(t, "echo", entries[0].Name)
	assert.True(t, entries[0].Available)
	assert.Equal(t, "noop", entries[1].Name)
	assert.True(t, entries[1].Available)
	assert.Equal(t, "ghost", entries[2].Name)
	assert.False(t, entries[2].Available)
}

func TestRunUnknownToolRejectedBeforeSpawn(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{}
	s := newTestServer(t, spy, nil)
	rec := doGet(t, s, "/run/zmap?target=example.com")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "zmap")
	assert.Equal(t, 0, spy.spawnCount())
}

func TestRunMissingBinaryRejectedBeforeSpawn(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{}
	s := newTestServer(t, spy, nil)
	rec := doGet(t, s, "/run/ghost?target=example.com")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost-bin")
	assert.Equal(t, 0, spy.spawnCount())
}

func TestRunMissingTargetRejectedBeforeSpawn(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{}
	s := newTestServer(t, spy, nil)
	rec := doGet(t, s, "/run/echo")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "domain")
	assert.Equal(t, 0, spy.spawnCount())
}

func TestRunStreamsLinesAsEvents(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{lines: []string{
		"$ /usr/bin/echo-bin -u example.com -silent",
		"found: api.example.com",
		runner.ExitStatusLine(0),
	}}
	s := newTestServer(t, spy, nil)
	rec := doGet(t, s, "/run/echo?target=example.com&args=-x&args=1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaults.ContentTypeEventStream, rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	_, err := uuid.Parse(rec.Header().Get("X-Run-Id"))
	assert.NoError(t, err, "X-Run-Id should be a UUID")

	body := rec.Body.String()
	assert.Contains(t, body, "data: found: api.example.com\n\n")
	assert.Contains(t, body, "data: "+runner.ExitStatusLine(0)+"\n\n")

	inv := spy.lastCall(t)
	assert.Equal(t, "echo", inv.Tool)
	assert.Equal(t,
		[]string{"/usr/bin/echo-bin", "-u", "example.com", "-silent", "-x", "1"},
		inv.Argv,
		"default args precede caller args, target bound to the flag")
}

func TestRunWithoutTargetAllowedWhenOptional(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{lines: []string{runner.ExitStatusLine(0)}}
	s := newTestServer(t, spy, nil)
	rec := doGet(t, s, "/run/noop")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"/usr/bin/noop-bin"}, spy.lastCall(t).Argv)
}

func TestRunCapacityRejectsWithRetryAfter(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	spy := &fakeStreamer{block: block}
	s := newTestServer(t, spy, func(o *Options) { o.MaxRuns = 1 })

	done := make(chan struct{})
	go func() {
		defer close(done)
		doGet(t, s, "/run/noop")
	}()

	// Wait for the first run to occupy its slot.
	require.Eventually(t, func() bool { return spy.spawnCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	rec := doGet(t, s, "/run/noop")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, spy.spawnCount())

	close(block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not finish after release")
	}
}

func TestRunSpawnRateLimited(t *testing.T) {
	t.Parallel()

	spy := &fakeStreamer{lines: []string{runner.ExitStatusLine(0)}}
	s := newTestServer(t, spy, func(o *Options) {
		o.SpawnRate = 1
		o.SpawnBurst = 1
	})

	first := doGet(t, s, "/run/noop")
	require.Equal(t, http.StatusOK, first.Code)

	second := doGet(t, s, "/run/noop")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Equal(t, 1, spy.spawnCount())
}

func TestHeartbeatKeepsIdleStreamAlive(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	spy := &fakeStreamer{block: block}
	s := newTestServer(t, spy, func(o *Options) { o.Heartbeat = 10 * time.Millisecond })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/run/noop", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Handler().ServeHTTP(rec, req)
	}()

	time.Sleep(60 * time.Millisecond)
	close(block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after release")
	}

	assert.Contains(t, rec.Body.String(), ": keepalive\n\n")
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{}, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/tools", nil)
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthzReportsCatalogCounts(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{}, nil)
	rec := doGet(t, s, "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)

	var body healthBody
	require.NoError(t, jsonutil.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, defaults.Version, body.Version)
	assert.Equal(t, 3, body.Tools)
	assert.Equal(t, 2, body.Available)
}

func TestIndexServesEmbeddedUI(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{}, nil)
	rec := doGet(t, s, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "scanrelay")
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{lines: []string{runner.ExitStatusLine(0)}}, nil)
	doGet(t, s, "/run/noop")

	rec := doGet(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scanrelay_runs_total")
}

func TestClassifyOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lastLine  string
		cancelled bool
		want      string
	}{
		{"clean exit", runner.ExitStatusLine(0), false, metrics.OutcomeOK},
		{"non-zero exit", runner.ExitStatusLine(2), false, metrics.OutcomeNonZero},
		{"spawn failure", "[failed to start nmap: exec: not found]", false, metrics.OutcomeSpawnError},
		{"cancelled mid-stream", "partial output", true, metrics.OutcomeCancelled},
		{"stream died without status", "partial output", false, metrics.OutcomeCancelled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, classifyOutcome(tc.lastLine, tc.cancelled))
		})
	}
}

func TestAcquireSlot(t *testing.T) {
	t.Parallel()

	t.Run("unbounded when uncapped", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &fakeStreamer{}, nil)
		for range 100 {
			release, ok := s.acquireSlot()
			require.True(t, ok)
			release()
		}
	})

	t.Run("cap enforced and released", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &fakeStreamer{}, func(o *Options) { o.MaxRuns = 2 })

		r1, ok := s.acquireSlot()
		require.True(t, ok)
		r2, ok := s.acquireSlot()
		require.True(t, ok)

		_, ok = s.acquireSlot()
		assert.False(t, ok)

		r1()
		r3, ok := s.acquireSlot()
		require.True(t, ok)
		r3()
		r2()
	})

	t.Run("no over-admission under contention", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, &fakeStreamer{}, func(o *Options) { o.MaxRuns = 2 })

		var admitted atomic.Int32
		testutil.RunConcurrently(32, func(int) {
			if _, ok := s.acquireSlot(); ok {
				admitted.Add(1)
			}
		})
		assert.Equal(t, int32(2), admitted.Load())
	})
}

func TestStrayPathsNotRouted(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeStreamer{}, nil)
	rec := doGet(t, s, "/run/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
