// FILE: lixenwraith/logship/compat/logger.go
package compat

import (
	"time"
)

// InfoLogger is the only logger capability the access log middleware needs
type InfoLogger interface {
	Info(msg string, kv ...any)
}

// LevelLogger is the logger surface used by the framework adapters
type LevelLogger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	Fatal(msg string, kv ...any)
}

// flusher is implemented by loggers that buffer records
type flusher interface {
	Flush(timeout time.Duration) error
}
