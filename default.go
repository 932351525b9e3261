// FILE: lixenwraith/logship/default.go
package logship

import (
	"sync"
	"time"
)

// Process-wide instance for package-level functions
var (
	defaultOnce   sync.Once
	defaultLogger *Logger
	defaultErr    error
)

// Init creates the process-wide logger once. Later calls return the first
// instance and error, their arguments are ignored.
func Init(cfg *Config, opts ...Option) (*Logger, error) {
	defaultOnce.Do(func() {
		defaultLogger, defaultErr = New(cfg, opts...)
	})
	return defaultLogger, defaultErr
}

// Default returns the process-wide logger, nil before a successful Init
func Default() *Logger {
	return defaultLogger
}

// Default package-level functions that delegate to the default logger.
// They are no-ops until Init succeeds.

// Debug logs a message at debug level
func Debug(msg string, kv ...any) {
	if l := defaultLogger; l != nil {
		l.log(LevelDebug, msg, kvToFields(kv))
	}
}

// Info logs a message at info level
func Info(msg string, kv ...any) {
	if l := defaultLogger; l != nil {
		l.log(LevelInfo, msg, kvToFields(kv))
	}
}

// Warn logs a message at warning level
func Warn(msg string, kv ...any) {
	if l := defaultLogger; l != nil {
		l.log(LevelWarn, msg, kvToFields(kv))
	}
}

// Error logs a message at error level
func Error(msg string, kv ...any) {
	if l := defaultLogger; l != nil {
		l.log(LevelError, msg, kvToFields(kv))
	}
}

// Fatal logs a message at fatal level. It does not exit the process.
func Fatal(msg string, kv ...any) {
	if l := defaultLogger; l != nil {
		l.log(LevelFatal, msg, kvToFields(kv))
	}
}

// Shutdown shuts down the default logger
func Shutdown(timeout time.Duration) error {
	if l := defaultLogger; l != nil {
		return l.Shutdown(timeout)
	}
	return nil
}
