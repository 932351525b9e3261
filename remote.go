// FILE: lixenwraith/logship/remote.go
package logship

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/logship/formatter"
)

// Notifier receives local-only pipeline diagnostics
type Notifier interface {
	Notice(level int64, msg string, fields Fields)
}

// NoticeFunc adapts a function to the Notifier interface
type NoticeFunc func(level int64, msg string, fields Fields)

// Notice calls f
func (f NoticeFunc) Notice(level int64, msg string, fields Fields) {
	f(level, msg, fields)
}

// RemoteStats is a snapshot of remote transport counters
type RemoteStats struct {
	Accepted      uint64
	Pushed        uint64
	Batches       uint64
	FailedBatches uint64
	Dropped       uint64
	Pending       int
}

// flushRequest asks the processor for an immediate push
type flushRequest struct {
	deadline time.Time
	done     chan struct{}
}

// RemoteTransport batches records in memory and pushes them to the aggregator
// from a single processor goroutine. Failed batches are dropped, not retried.
type RemoteTransport struct {
	cfg       *RemoteConfig
	client    *fasthttp.Client
	conns     *connTracker
	local     Notifier
	formatter *formatter.Formatter // processor goroutine only
	metrics   *transportMetrics

	// mu guards buf and overflow; Accept appends, the processor drains
	mu       sync.Mutex
	buf      []Record
	overflow uint64 // drops since the last report

	sizeSignal chan struct{}
	flushReqs  chan flushRequest
	done       chan struct{}
	exited     chan struct{}
	closed     atomic.Bool

	accepted      atomic.Uint64
	pushed        atomic.Uint64
	batches       atomic.Uint64
	failedBatches atomic.Uint64
	dropped       atomic.Uint64

	// processor goroutine only
	startTime    time.Time
	heartbeatSeq atomic.Uint64
	lastDropped  uint64
}

// NewRemoteTransport creates a remote transport and starts its processor.
// A nil client gets a default fasthttp client. The client's dialers are
// wrapped so Close can abort a push in flight; do not share it between transports.
func NewRemoteTransport(cfg *RemoteConfig, local Notifier, client *fasthttp.Client) *RemoteTransport {
	return newRemoteTransport(cfg, local, client, noopMetrics())
}

func newRemoteTransport(cfg *RemoteConfig, local Notifier, client *fasthttp.Client, metrics *transportMetrics) *RemoteTransport {
	if client == nil {
		client = &fasthttp.Client{
			Name:            "logship",
			MaxConnsPerHost: 4,
		}
	}
	if cfg.Batch.MaxEntries <= 0 {
		cfg.Batch.MaxEntries = int(defaultConfig.BatchMaxEntries)
	}
	if cfg.BufferLimit < cfg.Batch.MaxEntries {
		cfg.BufferLimit = cfg.Batch.MaxEntries
	}
	if cfg.Batch.RequestTimeout <= 0 {
		cfg.Batch.RequestTimeout = time.Duration(defaultConfig.RequestTimeoutMs) * time.Millisecond
	}

	t := &RemoteTransport{
		cfg:        cfg,
		client:     client,
		conns:      newConnTracker(client, cfg.Batch.RequestTimeout),
		local:      local,
		formatter:  formatter.New(),
		metrics:    metrics,
		buf:        make([]Record, 0, cfg.Batch.MaxEntries),
		sizeSignal: make(chan struct{}, 1),
		flushReqs:  make(chan flushRequest),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
		startTime:  time.Now(),
	}

	go t.processBatches(t.setupProcessingTimers())
	return t
}

// Name identifies the transport
func (t *RemoteTransport) Name() string {
	return DestinationRemote.String()
}

// Accept appends the record to the batch buffer without blocking on I/O
func (t *RemoteTransport) Accept(r Record) {
	if t.closed.Load() {
		t.recordDrops(1)
		return
	}

	t.mu.Lock()
	// Close may have discarded the buffer since the check above
	if t.closed.Load() {
		t.mu.Unlock()
		t.recordDrops(1)
		return
	}
	if len(t.buf) >= t.cfg.BufferLimit {
		t.overflow++
		t.mu.Unlock()
		t.recordDrops(1)
		return
	}
	t.buf = append(t.buf, r)
	full := len(t.buf) >= t.cfg.Batch.MaxEntries
	t.mu.Unlock()

	t.accepted.Add(1)
	t.metrics.accepted.Inc()

	if full {
		// Processor coalesces signals, one pending is enough
		select {
		case t.sizeSignal <- struct{}{}:
		default:
		}
	}
}

// Pending returns a copy of the buffered, not yet pushed records
func (t *RemoteTransport) Pending() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.buf))
	copy(out, t.buf)
	return out
}

// Flush pushes buffered records now and waits for completion or timeout.
// The push itself is bounded by the earlier of the timeout and the request timeout.
func (t *RemoteTransport) Flush(timeout time.Duration) error {
	if t.closed.Load() {
		return errTransportClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	req := flushRequest{
		deadline: time.Now().Add(timeout),
		done:     make(chan struct{}),
	}

	select {
	case t.flushReqs <- req:
	case <-t.exited:
		return errTransportClosed
	case <-timer.C:
		return fmtErrorf("timeout sending flush request (%v), push in progress", timeout)
	}

	select {
	case <-req.done:
		return nil
	case <-timer.C:
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// Close stops the processor and discards anything still buffered. A push in
// flight is aborted and its batch dropped. Safe to call repeatedly.
func (t *RemoteTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(t.done)
	t.conns.abort()

	var err error
	select {
	case <-t.exited:
	case <-time.After(closeWaitTime):
		err = fmtErrorf("remote processor did not exit within %v", closeWaitTime)
	}

	t.mu.Lock()
	discarded := len(t.buf)
	t.buf = nil
	t.mu.Unlock()

	if discarded > 0 {
		t.recordDrops(uint64(discarded))
	}

	return err
}

// Stats returns a snapshot of the transport counters
func (t *RemoteTransport) Stats() RemoteStats {
	t.mu.Lock()
	pending := len(t.buf)
	t.mu.Unlock()

	return RemoteStats{
		Accepted:      t.accepted.Load(),
		Pushed:        t.pushed.Load(),
		Batches:       t.batches.Load(),
		FailedBatches: t.failedBatches.Load(),
		Dropped:       t.dropped.Load(),
		Pending:       pending,
	}
}

// processBatches is the main processing loop running in a separate goroutine
func (t *RemoteTransport) processBatches(timers *TimerSet) {
	defer close(t.exited)
	defer t.closeProcessingTimers(timers)

	for {
		// Shutdown wins over pending triggers
		select {
		case <-t.done:
			return
		default:
		}

		select {
		case <-t.done:
			return

		case <-timers.flushTicker.C:
			t.pushPending(time.Time{})

		case <-t.sizeSignal:
			t.pushPending(time.Time{})

		case req := <-t.flushReqs:
			t.pushPending(req.deadline)
			close(req.done)

		case <-timers.heartbeatChan:
			t.logHeartbeat()
		}
	}
}

// drain swaps the buffer out under the lock
func (t *RemoteTransport) drain() ([]Record, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.buf) == 0 && t.overflow == 0 {
		return nil, 0
	}
	batch := t.buf
	t.buf = make([]Record, 0, t.cfg.Batch.MaxEntries)
	overflow := t.overflow
	t.overflow = 0
	return batch, overflow
}

// pushPending sends everything buffered as one request.
// A zero deadline means the request timeout alone bounds the push.
func (t *RemoteTransport) pushPending(deadline time.Time) {
	batch, overflow := t.drain()

	if len(batch) > 0 {
		pushDeadline := time.Now().Add(t.cfg.Batch.RequestTimeout)
		if !deadline.IsZero() && deadline.Before(pushDeadline) {
			pushDeadline = deadline
		}

		t.batches.Add(1)
		if err := t.push(batch, pushDeadline); err != nil {
			t.failedBatches.Add(1)
			t.metrics.failedBatches.Inc()
			t.recordDrops(uint64(len(batch)))
			t.local.Notice(LevelWarn, "remote log push failed, batch dropped", Fields{
				"error":      err.Error(),
				"batch_size": len(batch),
				"host":       t.cfg.Host,
			})
		} else {
			t.pushed.Add(uint64(len(batch)))
			t.metrics.pushed.Add(float64(len(batch)))
		}
	}

	if overflow > 0 {
		t.local.Notice(LevelWarn, "remote log buffer full, records dropped", Fields{
			"dropped_count": overflow,
			"buffer_limit":  t.cfg.BufferLimit,
		})
	}
}

// recordDrops updates drop counters
func (t *RemoteTransport) recordDrops(n uint64) {
	t.dropped.Add(n)
	t.metrics.dropped.Add(float64(n))
}
