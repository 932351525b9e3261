// FILE: lixenwraith/logship/override.go
package logship

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverrides applies "key=value" overrides to the configuration, keys are toml names.
// The configuration is validated after all overrides apply; nothing changes on error.
//
// Example:
//
//	err := cfg.ApplyOverrides(
//	    "level=debug",
//	    "remote_url=https://logs.example.com",
//	    "batch_max_entries=500",
//	)
func (c *Config) ApplyOverrides(overrides ...string) error {
	next := c.Clone()

	var errors []error

	for _, override := range overrides {
		key, value, ok := parseKeyValue(override)
		if !ok {
			errors = append(errors, fmtErrorf("invalid override '%s': expected key=value", override))
			continue
		}

		if err := applyConfigField(next, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	if err := next.Validate(); err != nil {
		return err
	}

	*c = *next
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("logship: multiple configuration errors:")
	for i, err := range errors {
		// Remove prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), "logship: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField sets the field whose toml tag matches key, parsing value by field kind
func applyConfigField(cfg *Config, key, value string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") != key {
			continue
		}

		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(value)
		case reflect.Int64:
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
			}
			field.SetInt(intVal)
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(value)
			if err != nil {
				return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
			}
			field.SetBool(boolVal)
		default:
			return fmtErrorf("unsupported field type for %s: %v", key, field.Kind())
		}
		return nil
	}

	return fmtErrorf("unknown configuration key: %s", key)
}
