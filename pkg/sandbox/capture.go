package sandbox

import (
	"fmt"
	"io"
	"sync"

	"github.com/fcchi/mcp-security-gateway/pkg/clock"
	"github.com/fcchi/mcp-security-gateway/pkg/outputhub"
)

const defaultMaxCaptureBytes = 1 << 20 // 1 MiB, per §4.3 step 4.

// capturingSink implements OutputSink: it publishes every chunk to the
// Output Hub in full (live subscribers always see all bytes, per §4.3)
// while separately accumulating a capped copy for the task's Result,
// replacing anything past maxBytes with a truncation marker. Grounded on
// the teacher's pkg/metrics.MetricsCollector shape (a small owned struct
// plus a logger) but adapted from periodic sampling to per-chunk capture.
type capturingSink struct {
	hub    *outputhub.Hub
	clock  clock.Clock
	taskID string
	maxBytes int

	mu        sync.Mutex
	stdout    []byte
	stderr    []byte
	stdoutLen int64
	stderrLen int64
	truncated bool
}

func newCapturingSink(hub *outputhub.Hub, c clock.Clock, taskID string, maxBytes int) *capturingSink {
	if maxBytes <= 0 {
		maxBytes = defaultMaxCaptureBytes
	}
	return &capturingSink{hub: hub, clock: c, taskID: taskID, maxBytes: maxBytes}
}

func (s *capturingSink) Stdout(b []byte) { s.publish(outputhub.Stdout, b) }
func (s *capturingSink) Stderr(b []byte) { s.publish(outputhub.Stderr, b) }

func (s *capturingSink) publish(kind outputhub.ChunkKind, b []byte) {
	s.hub.Publish(s.taskID, kind, b, s.clock.Now().UnixMilli())

	s.mu.Lock()
	defer s.mu.Unlock()

	var buf *[]byte
	var length *int64
	if kind == outputhub.Stdout {
		buf, length = &s.stdout, &s.stdoutLen
	} else {
		buf, length = &s.stderr, &s.stderrLen
	}

	*length += int64(len(b))
	if len(*buf) >= s.maxBytes {
		s.truncated = true
		return
	}
	room := s.maxBytes - len(*buf)
	if room < len(b) {
		*buf = append(*buf, b[:room]...)
		s.truncated = true
		return
	}
	*buf = append(*buf, b...)
}

// Captured returns the bounded stdout/stderr buffers for the task Result,
// appending a truncation marker to stdout when any stream overflowed.
func (s *capturingSink) Captured() (stdout, stderr []byte, stdoutLen, stderrLen int64, truncated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stdout = append([]byte(nil), s.stdout...)
	stderr = append([]byte(nil), s.stderr...)
	if s.truncated {
		marker := []byte(fmt.Sprintf("... [truncated %d bytes]", (s.stdoutLen+s.stderrLen)-int64(len(s.stdout)+len(s.stderr))))
		stdout = append(stdout, marker...)
	}
	return stdout, stderr, s.stdoutLen, s.stderrLen, s.truncated
}

// pumpStream copies r into sink chunk-by-chunk until EOF, tagging each
// chunk via write. Run as its own goroutine per stream by the confiner.
func pumpStream(r io.Reader, write func([]byte)) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			write(chunk)
		}
		if err != nil {
			return
		}
	}
}
