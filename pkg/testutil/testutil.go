// Package testutil provides shared test helpers for scanrelay.
// Fault injection and goroutine leak detection utilities.
package testutil

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

// ErrFault is the sentinel error returned by fault injection helpers.
var ErrFault = errors.New("injected fault")

// FailingWriter is an io.Writer that fails after Limit bytes written.
// If Limit is 0, every Write call fails immediately. Simulates a consumer
// disconnecting mid-stream.
type FailingWriter struct {
	written int
	Limit   int
}

func (w *FailingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.Limit {
		remaining := w.Limit - w.written
		if remaining > 0 {
			w.written += remaining
			return remaining, ErrFault
		}
		return 0, ErrFault
	}
	w.written += len(p)
	return len(p), nil
}

// CountingWriter counts bytes written.
type CountingWriter struct {
	N int64
}

func (w *CountingWriter) Write(p []byte) (int, error) {
	w.N += int64(len(p))
	return len(p), nil
}

// GoroutineTracker captures goroutine count before/after a test to detect leaks.
type GoroutineTracker struct {
	before int
}

// TrackGoroutines snapshots the current goroutine count. Call CheckLeaks after.
func TrackGoroutines() *GoroutineTracker {
	// Allow any pending goroutines to settle
	runtime.Gosched()
	return &GoroutineTracker{before: runtime.NumGoroutine()}
}

// CheckLeaks waits briefly for goroutines to drain, then fails the test if
// more goroutines are running than when tracking started.
// tolerance allows N extra goroutines (for runtime jitter).
func (g *GoroutineTracker) CheckLeaks(t *testing.T, tolerance int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		after := runtime.NumGoroutine()
		if after <= g.before+tolerance {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	after := runtime.NumGoroutine()
	if after > g.before+tolerance {
		t.Errorf("goroutine leak: before=%d after=%d tolerance=%d", g.before, after, tolerance)
	}
}

// AssertTimeout runs fn and fails if it doesn't complete within d.
func AssertTimeout(t *testing.T, name string, d time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		// ok
	case <-time.After(d):
		t.Fatalf("%s: timed out after %v (possible deadlock)", name, d)
	}
}

// RunConcurrently runs fn count times across goroutines and waits for all to finish.
// Useful for race condition testing.
func RunConcurrently(count int, fn func(i int)) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	wg.Add(count)
	for i := 0; i < count; i++ {
		go func(idx int) {
			defer wg.Done()
			<-start // synchronize start
			fn(idx)
		}(i)
	}
	close(start)
	wg.Wait()
}
