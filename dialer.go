// FILE: lixenwraith/logship/dialer.go
package logship

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
)

// errTransportClosed is returned for work attempted after Close
var errTransportClosed = fmtErrorf("remote transport closed")

// connTracker owns the push connections of one remote transport.
// abort closes every open connection, so a push blocked on the network
// returns immediately instead of waiting out its deadline.
type connTracker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	dialTimeout time.Duration
	dial        fasthttp.DialFunc // nil dials with a cancellable net.Dialer

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	aborted bool
}

// newConnTracker installs tracking dialers on client
func newConnTracker(client *fasthttp.Client, dialTimeout time.Duration) *connTracker {
	ctx, cancel := context.WithCancel(context.Background())
	d := &connTracker{
		ctx:         ctx,
		cancel:      cancel,
		dialTimeout: dialTimeout,
		dial:        client.Dial,
		conns:       make(map[net.Conn]struct{}),
	}

	client.Dial = d.Dial
	if dialWithTimeout := client.DialTimeout; dialWithTimeout != nil {
		client.DialTimeout = func(addr string, timeout time.Duration) (net.Conn, error) {
			return d.track(dialWithTimeout(addr, timeout))
		}
	}
	return d
}

// Dial opens a tracked connection to addr
func (d *connTracker) Dial(addr string) (net.Conn, error) {
	if d.dial != nil {
		return d.track(d.dial(addr))
	}
	dialer := net.Dialer{Timeout: d.dialTimeout}
	return d.track(dialer.DialContext(d.ctx, "tcp", addr))
}

func (d *connTracker) track(conn net.Conn, err error) (net.Conn, error) {
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.aborted {
		_ = conn.Close()
		return nil, errTransportClosed
	}
	d.conns[conn] = struct{}{}
	return &trackedConn{Conn: conn, tracker: d}, nil
}

func (d *connTracker) forget(conn net.Conn) {
	d.mu.Lock()
	delete(d.conns, conn)
	d.mu.Unlock()
}

// abort cancels pending dials and closes all open connections. Later dials fail.
func (d *connTracker) abort() {
	d.cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.aborted = true
	for conn := range d.conns {
		_ = conn.Close()
	}
	clear(d.conns)
}

// trackedConn unregisters itself on Close
type trackedConn struct {
	net.Conn
	tracker *connTracker
}

func (c *trackedConn) Close() error {
	c.tracker.forget(c.Conn)
	return c.Conn.Close()
}
