// FILE: lixenwraith/logship/timer.go
package logship

import "time"

// defaultFlushInterval applies when a batch policy carries no interval
const defaultFlushInterval = 2 * time.Second

// TimerSet holds all timers used by the remote processor
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	heartbeatChan   <-chan time.Time
}

// setupProcessingTimers creates the flush ticker and the optional heartbeat ticker
func (t *RemoteTransport) setupProcessingTimers() *TimerSet {
	timers := &TimerSet{}

	flushInterval := t.cfg.Batch.FlushInterval
	if flushInterval < minWaitTime {
		flushInterval = defaultFlushInterval
	}
	timers.flushTicker = time.NewTicker(flushInterval)

	timers.heartbeatChan = t.setupHeartbeatTimer(timers)

	return timers
}

// setupHeartbeatTimer configures the heartbeat timer if enabled, nil channel otherwise
func (t *RemoteTransport) setupHeartbeatTimer(timers *TimerSet) <-chan time.Time {
	if t.cfg.Heartbeat > 0 {
		timers.heartbeatTicker = time.NewTicker(t.cfg.Heartbeat)
		return timers.heartbeatTicker.C
	}
	return nil
}

// closeProcessingTimers stops all active timers
func (t *RemoteTransport) closeProcessingTimers(timers *TimerSet) {
	timers.flushTicker.Stop()
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}
