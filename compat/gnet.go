// FILE: lixenwraith/logship/compat/gnet.go
package compat

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// fatalFlushTimeout bounds the flush before the fatal handler runs
const fatalFlushTimeout = 100 * time.Millisecond

// keyValuePattern matches "key=%v" or "key: %v" verbs in a format string
var keyValuePattern = regexp.MustCompile(`(\w+)\s*[:=]\s*%[vsdqxXeEfFgGtpbcU]`)

// GnetAdapter wraps a logger to implement the gnet logging.Logger interface
type GnetAdapter struct {
	logger        LevelLogger
	fatalHandler  func(msg string) // nil keeps the process running
	extractFields bool
}

// NewGnetAdapter creates a new gnet-compatible logger adapter.
// Fatalf only logs and flushes; logging never exits the process. Pass
// WithFatalHandler to terminate on gnet fatal errors.
func NewGnetAdapter(logger LevelLogger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithFieldExtraction turns "key=%v" verbs into record fields
func WithFieldExtraction(enable bool) GnetOption {
	return func(a *GnetAdapter) {
		a.extractFields = enable
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	msg, kv := a.build(format, args)
	a.logger.Debug(msg, kv...)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	msg, kv := a.build(format, args)
	a.logger.Info(msg, kv...)
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	msg, kv := a.build(format, args)
	a.logger.Warn(msg, kv...)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	msg, kv := a.build(format, args)
	a.logger.Error(msg, kv...)
}

// Fatalf logs at fatal level, flushes, and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg, kv := a.build(format, args)
	a.logger.Fatal(msg, kv...)

	if f, ok := a.logger.(flusher); ok {
		_ = f.Flush(fatalFlushTimeout)
	}

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

// build returns the message and key-value pairs for one call
func (a *GnetAdapter) build(format string, args []any) (string, []any) {
	if a.extractFields {
		if msg, kv, ok := parseFormat(format, args); ok {
			return msg, append(kv, "source", "gnet")
		}
	}
	return fmt.Sprintf(format, args...), []any{"source", "gnet"}
}

// parseFormat extracts fields from key=%v verbs, the text before the first
// verb becomes the message. ok is false when verbs and args do not line up.
func parseFormat(format string, args []any) (msg string, kv []any, ok bool) {
	matches := keyValuePattern.FindAllStringSubmatchIndex(format, -1)
	if len(matches) == 0 || len(matches) != len(args) {
		return "", nil, false
	}

	kv = make([]any, 0, len(matches)*2)
	for i, match := range matches {
		kv = append(kv, format[match[2]:match[3]], args[i])
	}

	msg = strings.TrimSpace(format[:matches[0][0]])
	if tail := strings.TrimSpace(format[matches[len(matches)-1][1]:]); tail != "" && !strings.Contains(tail, "%") {
		msg = strings.TrimSpace(msg + " " + tail)
	}
	if msg == "" {
		msg = fmt.Sprintf(format, args...)
	}
	return msg, kv, true
}
