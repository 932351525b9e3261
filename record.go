// FILE: lixenwraith/logship/record.go
package logship

import (
	"fmt"
)

// log handles the core logging logic
func (l *Logger) log(level int64, msg string, fields Fields) {
	if level < l.minLevel || l.state.LoggerDisabled.Load() {
		return
	}

	record := NewRecord(level, msg, l.base, fields)
	l.state.TotalRecords.Add(1)

	for _, t := range l.transports {
		l.deliver(t, record)
	}
}

// deliver hands the record to one transport, a panic loses only this delivery
func (l *Logger) deliver(t Transport, r Record) {
	defer func() {
		if p := recover(); p != nil {
			l.state.TransportPanics.Add(1)
			if t == Transport(l.stdout) {
				return // Nowhere to report
			}
			l.notice(LevelWarn, "log transport failed, record dropped", Fields{
				"transport": t.Name(),
				"panic":     fmt.Sprint(p),
			})
		}
	}()
	t.Accept(r)
}

// notice writes a pipeline diagnostic to stdout only, it never reaches the remote destination
func (l *Logger) notice(level int64, msg string, fields Fields) {
	defer func() {
		_ = recover()
	}()
	l.stdout.Accept(NewRecord(level, msg, l.base, fields))
}
