// Package eventstream implements the server side of the Server-Sent Events
// wire format (text/event-stream) used to relay live tool output.
// One event per output line, flushed immediately so the client sees output
// as the child process writes it.
package eventstream

import (
	"io"
	"net/http"
	"strings"

	"github.com/scanrelay/scanrelay/pkg/defaults"
)

// Writer frames payloads as SSE events on an underlying stream.
// Not safe for concurrent use; each HTTP request owns exactly one Writer.
type Writer struct {
	w     io.Writer
	flush func()
}

// New wraps an HTTP response writer, sets the event-stream headers, and
// returns a Writer that flushes after every event. Works with any
// io.Writer; flushing is skipped when the writer does not support it.
func New(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", defaults.ContentTypeEventStream)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Tell nginx and friends not to aggregate the stream.
	h.Set("X-Accel-Buffering", "no")

	ew := &Writer{w: w}
	if f, ok := w.(http.Flusher); ok {
		ew.flush = f.Flush
	}
	return ew
}

// NewRaw wraps a plain writer without touching headers. For tests.
func NewRaw(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Data writes one event carrying payload. A payload containing newlines is
// framed as multiple data: lines of a single event, per the SSE grammar.
func (e *Writer) Data(payload string) error {
	var b strings.Builder
	b.Grow(len(payload) + 16)
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(e.w, b.String()); err != nil {
		return err
	}
	if e.flush != nil {
		e.flush()
	}
	return nil
}

// Comment writes an SSE comment line. Clients ignore it; proxies see
// traffic. Used as a keep-alive for long-silent tools.
func (e *Writer) Comment(text string) error {
	if _, err := io.WriteString(e.w, ": "+text+"\n\n"); err != nil {
		return err
	}
	if e.flush != nil {
		e.flush()
	}
	return nil
}
