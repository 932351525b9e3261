// FILE: lixenwraith/logship/constant.go
package logship

import (
	"time"
)

// Log level constants
const (
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelError int64 = 8
	LevelFatal int64 = 12
)

// Identity labels attached to every remote stream, user labels cannot override them
const (
	LabelService = "service"
	LabelEnv     = "env"
	LabelTenant  = "tenant"
)

// Base field keys attached to every record
const (
	FieldService    = "service"
	FieldEnv        = "env"
	FieldInstanceID = "instance_id"
)

// Remote push protocol
const (
	// Fixed path appended to the normalized host
	pushPath = "/loki/api/v1/push"
	// Multi-tenant scoping header
	tenantHeader = "X-Scope-OrgID"
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
	// Upper bound for waiting on a processor to exit after Close
	closeWaitTime = 100 * time.Millisecond
)
