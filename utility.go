// FILE: lixenwraith/logship/utility.go
package logship

import (
	"fmt"
	"strings"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "logship: ") {
		format = "logship: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string on the first '='.
// Both sides are trimmed; ok is false for a missing '=' or empty key.
func parseKeyValue(arg string) (key, value string, ok bool) {
	k, v, found := strings.Cut(arg, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(k)
	value = strings.TrimSpace(v)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// Level converts level string to numeric constant
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, error, fatal)", levelStr)
	}
}

// kvToFields converts alternating key-value arguments into Fields.
// Non-string keys are formatted; a dangling key is stored under "_extra".
func kvToFields(kv []any) Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(Fields, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			fields["_extra"] = kv[i]
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields[key] = kv[i+1]
	}
	return fields
}
