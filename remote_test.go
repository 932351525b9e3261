// FILE: lixenwraith/logship/remote_test.go
package logship

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

// pushCapture records requests received by the fake aggregator
type pushCapture struct {
	mu       sync.Mutex
	bodies   [][]byte
	headers  []http.Header
	status   int
	received chan struct{} // signaled per request when non-nil
	release  chan struct{} // handler blocks until closed when non-nil
	delay    time.Duration
}

func (c *pushCapture) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer zr.Close()
		reader = zr
	}
	body, _ := io.ReadAll(reader)

	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.headers = append(c.headers, r.Header.Clone())
	status := c.status
	c.mu.Unlock()

	if c.received != nil {
		c.received <- struct{}{}
	}
	if c.release != nil {
		<-c.release
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	if status == 0 {
		status = http.StatusNoContent
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte("aggregator says no"))
}

func (c *pushCapture) requests() ([][]byte, []http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.bodies...), append([]http.Header(nil), c.headers...)
}

func (c *pushCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

// captured is one Notice call
type captured struct {
	level  int64
	msg    string
	fields Fields
}

// memNotifier collects local diagnostics
type memNotifier struct {
	mu      sync.Mutex
	notices []captured
}

func (m *memNotifier) Notice(level int64, msg string, fields Fields) {
	m.mu.Lock()
	m.notices = append(m.notices, captured{level: level, msg: msg, fields: fields})
	m.mu.Unlock()
}

func (m *memNotifier) find(msg string) []captured {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []captured
	for _, n := range m.notices {
		if n.msg == msg {
			out = append(out, n)
		}
	}
	return out
}

// testRemoteConfig points a remote destination at url with timers effectively off
func testRemoteConfig(url string) *RemoteConfig {
	return &RemoteConfig{
		Host:     url,
		PushURL:  url + pushPath,
		Auth:     Auth{Mode: AuthBasic, User: "12345", Secret: "secret"},
		TenantID: "12345",
		Labels:   LabelSet{"service": "backend", "env": "test", "tenant": "12345"},
		Batch: BatchPolicy{
			MaxEntries:     100,
			FlushInterval:  time.Hour,
			RequestTimeout: time.Second,
		},
		BufferLimit: 1000,
	}
}

// createTestRemote starts an aggregator and a transport pointed at it
func createTestRemote(t *testing.T, capture *pushCapture, modify func(*RemoteConfig)) (*RemoteTransport, *memNotifier) {
	t.Helper()
	srv := httptest.NewServer(capture)
	t.Cleanup(srv.Close)

	cfg := testRemoteConfig(srv.URL)
	if modify != nil {
		modify(cfg)
	}

	notifier := &memNotifier{}
	rt := NewRemoteTransport(cfg, notifier, nil)
	t.Cleanup(func() { _ = rt.Close() })
	return rt, notifier
}

func testRecord(msg string) Record {
	return NewRecord(LevelInfo, msg, Fields{"service": "backend"}, Fields{"k": msg})
}

func TestRemotePendingKeepsAcceptOrder(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, nil)

	var want []string
	for i := 0; i < 5; i++ {
		msg := fmt.Sprintf("record %d", i)
		want = append(want, msg)
		rt.Accept(testRecord(msg))
	}

	pending := rt.Pending()
	require.Len(t, pending, 5)
	for i, r := range pending {
		assert.Equal(t, want[i], r.Message)
	}
	assert.Equal(t, 0, capture.count(), "nothing pushed without a trigger")

	// Pending is a copy
	pending[0].Message = "mutated"
	assert.Equal(t, "record 0", rt.Pending()[0].Message)
}

func TestRemoteFlushPushesBatch(t *testing.T) {
	capture := &pushCapture{}
	rt, notifier := createTestRemote(t, capture, nil)

	records := []Record{testRecord("first"), testRecord("second"), testRecord("third")}
	for _, r := range records {
		rt.Accept(r)
	}

	require.NoError(t, rt.Flush(time.Second))
	assert.Empty(t, rt.Pending())

	bodies, headers := capture.requests()
	require.Len(t, bodies, 1)

	h := headers[0]
	creds := base64.StdEncoding.EncodeToString([]byte("12345:secret"))
	assert.Equal(t, "Basic "+creds, h.Get("Authorization"))
	assert.Equal(t, "12345", h.Get("X-Scope-OrgID"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Empty(t, h.Get("Content-Encoding"))

	v, err := fastjson.ParseBytes(bodies[0])
	require.NoError(t, err)
	streams := v.GetArray("streams")
	require.Len(t, streams, 1)
	assert.Equal(t, "backend", string(streams[0].GetStringBytes("stream", "service")))
	assert.Equal(t, "test", string(streams[0].GetStringBytes("stream", "env")))
	assert.Equal(t, "12345", string(streams[0].GetStringBytes("stream", "tenant")))

	values := streams[0].GetArray("values")
	require.Len(t, values, 3)
	for i, val := range values {
		assert.Equal(t, strconv.FormatInt(records[i].Time.UnixNano(), 10), string(val.GetStringBytes("0")))

		line, err := fastjson.Parse(string(val.GetStringBytes("1")))
		require.NoError(t, err)
		assert.Equal(t, "INFO", string(line.GetStringBytes("level")))
		assert.Equal(t, records[i].Message, string(line.GetStringBytes("msg")))
		assert.Equal(t, records[i].Message, string(line.GetStringBytes("fields", "k")))
	}

	stats := rt.Stats()
	assert.Equal(t, uint64(3), stats.Accepted)
	assert.Equal(t, uint64(3), stats.Pushed)
	assert.Equal(t, uint64(1), stats.Batches)
	assert.Zero(t, stats.FailedBatches)
	assert.Empty(t, notifier.find("remote log push failed, batch dropped"))
}

func TestRemoteFlushEmptyBufferSendsNothing(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, nil)

	require.NoError(t, rt.Flush(time.Second))
	assert.Equal(t, 0, capture.count())
}

func TestRemoteBatchesStayFIFO(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, nil)

	rt.Accept(testRecord("a"))
	rt.Accept(testRecord("b"))
	require.NoError(t, rt.Flush(time.Second))
	rt.Accept(testRecord("c"))
	require.NoError(t, rt.Flush(time.Second))

	bodies, _ := capture.requests()
	require.Len(t, bodies, 2)

	var msgs []string
	for _, body := range bodies {
		v := fastjson.MustParseBytes(body)
		for _, val := range v.GetArray("streams", "0", "values") {
			line := fastjson.MustParse(string(val.GetStringBytes("1")))
			msgs = append(msgs, string(line.GetStringBytes("msg")))
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, msgs)
}

func TestRemoteSizeTrigger(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Batch.MaxEntries = 2
	})

	rt.Accept(testRecord("one"))
	rt.Accept(testRecord("two"))

	require.Eventually(t, func() bool { return capture.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	bodies, _ := capture.requests()
	v := fastjson.MustParseBytes(bodies[0])
	assert.Len(t, v.GetArray("streams", "0", "values"), 2)
}

func TestRemoteFlushInterval(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Batch.FlushInterval = 20 * time.Millisecond
	})

	rt.Accept(testRecord("tick"))

	require.Eventually(t, func() bool { return capture.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(rt.Pending()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestRemotePushFailureDropsBatch(t *testing.T) {
	tests := []struct {
		name    string
		capture *pushCapture
		closed  bool
	}{
		{name: "server error", capture: &pushCapture{status: http.StatusInternalServerError}},
		{name: "unauthorized", capture: &pushCapture{status: http.StatusUnauthorized}},
		{name: "unreachable", capture: &pushCapture{}, closed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.capture)
			url := srv.URL
			if tt.closed {
				srv.Close()
			} else {
				defer srv.Close()
			}

			notifier := &memNotifier{}
			rt := NewRemoteTransport(testRemoteConfig(url), notifier, nil)
			defer rt.Close()

			rt.Accept(testRecord("lost 1"))
			rt.Accept(testRecord("lost 2"))
			require.NoError(t, rt.Flush(2*time.Second))

			assert.Empty(t, rt.Pending(), "failed batch must not be retained")

			warnings := notifier.find("remote log push failed, batch dropped")
			require.Len(t, warnings, 1, "exactly one warning per failed batch")
			assert.Equal(t, LevelWarn, warnings[0].level)
			assert.Equal(t, 2, warnings[0].fields["batch_size"])
			assert.NotEmpty(t, warnings[0].fields["error"])

			stats := rt.Stats()
			assert.Equal(t, uint64(1), stats.FailedBatches)
			assert.Equal(t, uint64(2), stats.Dropped)
			assert.Zero(t, stats.Pushed)

			// No retry on the next flush
			require.NoError(t, rt.Flush(time.Second))
			assert.Len(t, notifier.find("remote log push failed, batch dropped"), 1)
		})
	}
}

func TestRemoteRejectionIncludesStatus(t *testing.T) {
	capture := &pushCapture{status: http.StatusBadRequest}
	rt, notifier := createTestRemote(t, capture, nil)

	rt.Accept(testRecord("bad"))
	require.NoError(t, rt.Flush(time.Second))

	warnings := notifier.find("remote log push failed, batch dropped")
	require.Len(t, warnings, 1)
	errText, _ := warnings[0].fields["error"].(string)
	assert.Contains(t, errText, "HTTP 400")
	assert.Contains(t, errText, "aggregator says no")
}

func TestRemoteBearerGzipAndHeaders(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Auth = Auth{Mode: AuthBearer, User: "12345", Secret: "tok"}
		c.TenantID = "team-a"
		c.Gzip = true
		c.Headers = map[string]string{
			"X-Source":      "logship",
			"X-Scope-OrgID": "spoofed",
		}
	})

	rt.Accept(testRecord("zipped"))
	require.NoError(t, rt.Flush(time.Second))

	bodies, headers := capture.requests()
	require.Len(t, bodies, 1)
	h := headers[0]
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "gzip", h.Get("Content-Encoding"))
	assert.Equal(t, "logship", h.Get("X-Source"))
	assert.Equal(t, "team-a", h.Get("X-Scope-OrgID"), "extra headers cannot override the tenant")

	v, err := fastjson.ParseBytes(bodies[0])
	require.NoError(t, err)
	assert.Len(t, v.GetArray("streams", "0", "values"), 1)
}

func TestRemoteBufferOverflow(t *testing.T) {
	capture := &pushCapture{
		received: make(chan struct{}, 4),
		release:  make(chan struct{}),
	}
	rt, notifier := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Batch.MaxEntries = 2
		c.BufferLimit = 2
	})
	released := false
	defer func() {
		if !released {
			close(capture.release)
		}
	}()

	// First batch goes out and the processor blocks on the aggregator
	rt.Accept(testRecord("a"))
	rt.Accept(testRecord("b"))
	select {
	case <-capture.received:
	case <-time.After(2 * time.Second):
		t.Fatal("first push never arrived")
	}

	// Buffer fills while the push is in flight, the rest is dropped
	for i := 0; i < 5; i++ {
		rt.Accept(testRecord(fmt.Sprintf("late %d", i)))
	}
	assert.Len(t, rt.Pending(), 2)
	assert.Equal(t, uint64(3), rt.Stats().Dropped)

	close(capture.release)
	released = true

	require.Eventually(t, func() bool {
		return len(notifier.find("remote log buffer full, records dropped")) == 1
	}, 2*time.Second, 5*time.Millisecond)

	report := notifier.find("remote log buffer full, records dropped")[0]
	assert.Equal(t, LevelWarn, report.level)
	assert.Equal(t, uint64(3), report.fields["dropped_count"])
	assert.Equal(t, 2, report.fields["buffer_limit"])
	assert.Equal(t, 2, capture.count())
}

func TestRemoteFlushBoundedByTimeout(t *testing.T) {
	capture := &pushCapture{delay: 300 * time.Millisecond}
	rt, notifier := createTestRemote(t, capture, nil)

	rt.Accept(testRecord("slow"))

	start := time.Now()
	_ = rt.Flush(50 * time.Millisecond)
	assert.Less(t, time.Since(start), 250*time.Millisecond)

	// The push deadline follows the flush deadline, so the batch fails
	require.Eventually(t, func() bool {
		return len(notifier.find("remote log push failed, batch dropped")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRemoteConcurrentAccept(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Batch.MaxEntries = 20
	})

	const workers, perWorker = 10, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rt.Accept(testRecord(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, rt.Flush(2*time.Second))

	seen := make(map[string]int)
	bodies, _ := capture.requests()
	for _, body := range bodies {
		v := fastjson.MustParseBytes(body)
		for _, val := range v.GetArray("streams", "0", "values") {
			line := fastjson.MustParse(string(val.GetStringBytes("1")))
			seen[string(line.GetStringBytes("msg"))]++
		}
	}

	assert.Len(t, seen, workers*perWorker, "every record delivered")
	for msg, n := range seen {
		assert.Equal(t, 1, n, "record %s delivered more than once", msg)
	}
	assert.Equal(t, uint64(workers*perWorker), rt.Stats().Pushed)
}

func TestRemoteCloseDiscardsBuffer(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, nil)

	for i := 0; i < 3; i++ {
		rt.Accept(testRecord("pending"))
	}

	require.NoError(t, rt.Close())
	assert.Empty(t, rt.Pending())
	assert.Equal(t, uint64(3), rt.Stats().Dropped)
	assert.Equal(t, 0, capture.count(), "close does not push")

	// Idempotent, later use is safe
	assert.NoError(t, rt.Close())
	rt.Accept(testRecord("after close"))
	assert.Equal(t, uint64(4), rt.Stats().Dropped)
	assert.Error(t, rt.Flush(100*time.Millisecond))
}

func TestRemoteCloseAbortsInFlightPush(t *testing.T) {
	capture := &pushCapture{
		received: make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	srv := httptest.NewServer(capture)
	defer srv.Close()
	defer close(capture.release)

	cfg := testRemoteConfig(srv.URL)
	cfg.Batch.FlushInterval = 20 * time.Millisecond
	cfg.Batch.RequestTimeout = 5 * time.Second
	notifier := &memNotifier{}
	rt := NewRemoteTransport(cfg, notifier, nil)

	rt.Accept(testRecord("in flight"))
	select {
	case <-capture.received:
	case <-time.After(2 * time.Second):
		t.Fatal("push never reached the aggregator")
	}

	start := time.Now()
	require.NoError(t, rt.Close())
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-rt.exited:
	default:
		t.Fatal("processor running after Close returned")
	}
	assert.Equal(t, uint64(1), rt.Stats().Dropped)
	assert.Equal(t, uint64(1), rt.Stats().FailedBatches)
	assert.Len(t, notifier.find("remote log push failed, batch dropped"), 1)
}

func TestRemoteAcceptDuringClose(t *testing.T) {
	capture := &pushCapture{}
	rt, _ := createTestRemote(t, capture, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				rt.Accept(testRecord("racing"))
			}
		}()
	}
	require.NoError(t, rt.Close())
	wg.Wait()

	stats := rt.Stats()
	assert.Equal(t, 0, stats.Pending, "nothing is left in a buffer no one drains")
	// Every record is either delivered or counted as dropped
	assert.Equal(t, uint64(800), stats.Pushed+stats.Dropped)
}

func TestRemoteHeartbeat(t *testing.T) {
	capture := &pushCapture{}
	rt, notifier := createTestRemote(t, capture, func(c *RemoteConfig) {
		c.Heartbeat = 20 * time.Millisecond
	})
	rt.Accept(testRecord("counted"))

	require.Eventually(t, func() bool {
		return len(notifier.find("remote transport heartbeat")) > 0
	}, 2*time.Second, 5*time.Millisecond)

	hb := notifier.find("remote transport heartbeat")[0]
	assert.Equal(t, LevelInfo, hb.level)
	assert.Equal(t, "remote", hb.fields["type"])
	assert.Equal(t, uint64(1), hb.fields["sequence"])
	assert.Equal(t, uint64(1), hb.fields["accepted"])
	assert.Equal(t, 0, capture.count(), "heartbeats never reach the aggregator")
}
