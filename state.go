// FILE: lixenwraith/logship/state.go
package logship

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// State encapsulates the runtime state of the logger
type State struct {
	LoggerDisabled atomic.Bool
	ShutdownCalled atomic.Bool

	StartTime       time.Time
	TotalRecords    atomic.Uint64 // Records built and handed to transports
	TransportPanics atomic.Uint64 // Accept calls recovered from a panic
}

// Shutdown disables the logger, flushes every transport concurrently within timeout
// and closes them. Only the first call does any work; later calls return nil.
// A non-positive timeout uses the configured shutdown timeout.
func (l *Logger) Shutdown(timeout time.Duration) error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	l.state.LoggerDisabled.Store(true)

	if timeout <= 0 {
		timeout = time.Duration(l.cfg.ShutdownTimeoutMs) * time.Millisecond
	}

	finalErr := l.flushAll(timeout)

	// Anything still buffered after the flush is discarded by Close
	for _, t := range l.transports {
		if err := t.Close(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to close %s transport: %w", t.Name(), err))
		}
	}

	return finalErr
}

// Flush pushes buffered records on every transport and waits up to timeout
func (l *Logger) Flush(timeout time.Duration) error {
	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger already shut down")
	}
	return l.flushAll(timeout)
}

// flushAll flushes transports in parallel, the first failure is returned
func (l *Logger) flushAll(timeout time.Duration) error {
	var g errgroup.Group
	for _, t := range l.transports {
		g.Go(func() error {
			if err := t.Flush(timeout); err != nil {
				return fmtErrorf("failed to flush %s transport: %w", t.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
