// FILE: lixenwraith/logship/stdout.go
package logship

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/logship/formatter"
)

// StdoutTransport writes each record synchronously as one line.
// Write order equals Accept order.
type StdoutTransport struct {
	mu        sync.Mutex
	w         io.Writer
	formatter *formatter.Formatter
	metrics   *transportMetrics

	writeErrors atomic.Uint64
}

// NewStdoutTransport creates a console transport writing to w
func NewStdoutTransport(w io.Writer, format, timestampFormat string) *StdoutTransport {
	return &StdoutTransport{
		w:         w,
		formatter: formatter.New().Type(format).TimestampFormat(timestampFormat),
		metrics:   noopMetrics(),
	}
}

// Name identifies the transport
func (s *StdoutTransport) Name() string {
	return DestinationStdout.String()
}

// Accept formats and writes the record immediately
func (s *StdoutTransport) Accept(r Record) {
	s.metrics.accepted.Inc()
	s.write(r.Time, r.Level, r.Message, r.Fields)
}

// Warn writes a local-only warning line. Used for pipeline diagnostics
// that must never be routed to the remote destination.
func (s *StdoutTransport) Warn(msg string, fields Fields) {
	s.write(time.Now(), LevelWarn, msg, fields)
}

// Notice writes a local-only line at the given level
func (s *StdoutTransport) Notice(level int64, msg string, fields Fields) {
	s.write(time.Now(), level, msg, fields)
}

// Flush is a no-op, writes are synchronous
func (s *StdoutTransport) Flush(time.Duration) error {
	return nil
}

// Close is a no-op, the process owns stdout
func (s *StdoutTransport) Close() error {
	return nil
}

// WriteErrors returns the number of failed writes
func (s *StdoutTransport) WriteErrors() uint64 {
	return s.writeErrors.Load()
}

// write formats under the lock since the formatter buffer is shared
func (s *StdoutTransport) write(ts time.Time, level int64, msg string, fields Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.formatter.Format(ts, level, msg, fields)
	if _, err := s.w.Write(line); err != nil {
		// Nowhere left to report, count only
		s.writeErrors.Add(1)
		s.metrics.dropped.Inc()
		return
	}
	s.metrics.pushed.Inc()
}
