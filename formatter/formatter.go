// FILE: lixenwraith/logship/formatter/formatter.go
// Package formatter encodes log records as single self-contained lines.
package formatter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/logship/sanitizer"
)

// Output formats
const (
	FormatJSON = "json"
	FormatTxt  = "txt"
)

// compactDumper renders nested values on one line with stable key order
var compactDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          false,
	SortKeys:                true,
}

// Formatter manages the buffered formatting of log records.
// Not safe for concurrent use; callers serialize access.
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	format          string
	timestampFormat string
	buf             []byte
}

// New creates a JSON formatter with the console sanitizer policy
func New() *Formatter {
	return &Formatter{
		sanitizer:       sanitizer.New().Policy(sanitizer.PolicyConsole),
		format:          FormatJSON,
		timestampFormat: time.RFC3339Nano,
		buf:             make([]byte, 0, 1024),
	}
}

// Type sets the output format ("json" or "txt"), unknown values fall back to json
func (f *Formatter) Type(format string) *Formatter {
	if format == FormatTxt {
		f.format = FormatTxt
	} else {
		f.format = FormatJSON
	}
	return f
}

// TimestampFormat sets the timestamp layout
func (f *Formatter) TimestampFormat(layout string) *Formatter {
	if layout != "" {
		f.timestampFormat = layout
	}
	return f
}

// Format encodes one record as a newline-terminated line.
// The returned slice is reused by the next call.
func (f *Formatter) Format(ts time.Time, level int64, msg string, fields map[string]any) []byte {
	f.buf = f.buf[:0]
	if f.format == FormatTxt {
		return f.formatTxt(ts, level, msg, fields)
	}
	return f.formatJSON(ts, level, msg, fields)
}

// FormatBody encodes a record without the trailing newline, for use as a remote entry line
func (f *Formatter) FormatBody(ts time.Time, level int64, msg string, fields map[string]any) []byte {
	line := f.Format(ts, level, msg, fields)
	return line[:len(line)-1]
}

// LevelToString converts integer level values to string
func LevelToString(level int64) string {
	switch level {
	case -4:
		return "DEBUG"
	case 0:
		return "INFO"
	case 4:
		return "WARN"
	case 8:
		return "ERROR"
	case 12:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// formatJSON writes {"time":..,"level":..,"msg":..,"fields":{..}}
func (f *Formatter) formatJSON(ts time.Time, level int64, msg string, fields map[string]any) []byte {
	f.buf = append(f.buf, `{"time":"`...)
	f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, `","level":"`...)
	f.buf = append(f.buf, LevelToString(level)...)
	f.buf = append(f.buf, `","msg":`...)
	f.writeJSONString(msg)

	if len(fields) > 0 {
		f.buf = append(f.buf, `,"fields":`...)
		marshaledFields, err := json.Marshal(normalizeFields(fields))
		if err != nil {
			f.buf = append(f.buf, `{"_marshal_error":`...)
			f.writeJSONString(err.Error())
			f.buf = append(f.buf, '}')
		} else {
			f.buf = append(f.buf, marshaledFields...)
		}
	}

	f.buf = append(f.buf, '}', '\n')
	return f.buf
}

// formatTxt writes "time LEVEL msg key=value ..." with keys sorted
func (f *Formatter) formatTxt(ts time.Time, level int64, msg string, fields map[string]any) []byte {
	f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, ' ')
	f.buf = append(f.buf, LevelToString(level)...)
	f.buf = append(f.buf, ' ')
	f.buf = append(f.buf, f.sanitizer.Sanitize(msg)...)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f.buf = append(f.buf, ' ')
		f.writeTxtToken(k)
		f.buf = append(f.buf, '=')
		f.writeTxtValue(fields[k])
	}

	f.buf = append(f.buf, '\n')
	return f.buf
}

// writeJSONString appends a quoted JSON string
func (f *Formatter) writeJSONString(s string) {
	quoted, _ := json.Marshal(s) // string marshaling cannot fail
	f.buf = append(f.buf, quoted...)
}

// writeTxtValue converts a field value to its txt representation
func (f *Formatter) writeTxtValue(v any) {
	switch val := v.(type) {
	case string:
		f.writeTxtToken(val)
	case int:
		f.buf = strconv.AppendInt(f.buf, int64(val), 10)
	case int64:
		f.buf = strconv.AppendInt(f.buf, val, 10)
	case uint64:
		f.buf = strconv.AppendUint(f.buf, val, 10)
	case float32:
		f.buf = strconv.AppendFloat(f.buf, float64(val), 'f', -1, 32)
	case float64:
		f.buf = strconv.AppendFloat(f.buf, val, 'f', -1, 64)
	case bool:
		f.buf = strconv.AppendBool(f.buf, val)
	case nil:
		f.buf = append(f.buf, "null"...)
	case time.Time:
		f.buf = val.AppendFormat(f.buf, f.timestampFormat)
	case time.Duration:
		f.buf = append(f.buf, val.String()...)
	case error:
		f.writeTxtToken(val.Error())
	case fmt.Stringer:
		f.writeTxtToken(val.String())
	default:
		f.writeTxtToken(compactDumper.Sprintf("%v", val))
	}
}

// writeTxtToken sanitizes and quotes when the value has spaces or separators
func (f *Formatter) writeTxtToken(s string) {
	sanitized := f.sanitizer.Sanitize(s)
	if !needsQuotes(sanitized) {
		f.buf = append(f.buf, sanitized...)
		return
	}
	f.buf = append(f.buf, '"')
	for i := 0; i < len(sanitized); i++ {
		if sanitized[i] == '"' || sanitized[i] == '\\' {
			f.buf = append(f.buf, '\\')
		}
		f.buf = append(f.buf, sanitized[i])
	}
	f.buf = append(f.buf, '"')
}

// needsQuotes reports whether a txt token would be ambiguous unquoted
func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '=' || r == '\\'
	}) >= 0
}

// normalizeFields replaces values encoding/json cannot represent
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case error:
			out[k] = val.Error()
		case time.Duration:
			out[k] = val.String()
		default:
			out[k] = v
		}
	}
	return out
}
