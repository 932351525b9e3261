// FILE: lixenwraith/logship/interface.go
package logship

import (
	"time"
)

// Transport is a delivery target for records.
// Accept must not block on network I/O.
type Transport interface {
	Name() string
	Accept(r Record)
	Flush(timeout time.Duration) error
	Close() error
}

// Logger instance methods for logging at different levels.
// Arguments after the message are key-value pairs.

// Debug logs a message at debug level
func (l *Logger) Debug(msg string, kv ...any) {
	l.log(LevelDebug, msg, kvToFields(kv))
}

// Info logs a message at info level
func (l *Logger) Info(msg string, kv ...any) {
	l.log(LevelInfo, msg, kvToFields(kv))
}

// Warn logs a message at warning level
func (l *Logger) Warn(msg string, kv ...any) {
	l.log(LevelWarn, msg, kvToFields(kv))
}

// Error logs a message at error level
func (l *Logger) Error(msg string, kv ...any) {
	l.log(LevelError, msg, kvToFields(kv))
}

// Fatal logs a message at fatal level. It does not exit the process.
func (l *Logger) Fatal(msg string, kv ...any) {
	l.log(LevelFatal, msg, kvToFields(kv))
}

// Log logs a message with an explicit level and structured fields
func (l *Logger) Log(level int64, msg string, fields Fields) {
	l.log(level, msg, fields)
}
