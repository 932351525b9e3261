// FILE: lixenwraith/logship/heartbeat.go
package logship

import (
	"fmt"
	"time"
)

// logHeartbeat writes remote transport statistics to the local destination.
// Heartbeats never enter the remote buffer.
func (t *RemoteTransport) logHeartbeat() {
	stats := t.Stats()
	sequence := t.heartbeatSeq.Add(1)

	var uptimeHours float64
	if !t.startTime.IsZero() {
		uptimeHours = time.Since(t.startTime).Hours()
	}

	fields := Fields{
		"type":           "remote",
		"sequence":       sequence,
		"uptime_hours":   fmt.Sprintf("%.2f", uptimeHours),
		"accepted":       stats.Accepted,
		"pushed":         stats.Pushed,
		"batches":        stats.Batches,
		"failed_batches": stats.FailedBatches,
		"pending":        stats.Pending,
		"host":           t.cfg.Host,
	}

	// Interval drops reset each heartbeat, total stays in Stats
	if dropped := stats.Dropped; dropped > 0 {
		fields["total_dropped"] = dropped
		if since := dropped - t.lastDropped; since > 0 {
			fields["dropped_since_last"] = since
		}
		t.lastDropped = dropped
	}

	t.local.Notice(LevelInfo, "remote transport heartbeat", fields)
}
