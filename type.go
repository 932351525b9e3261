// FILE: lixenwraith/logship/type.go
package logship

import (
	"time"
)

// Fields holds structured record data, values are scalars or nested maps/slices
type Fields map[string]any

// LabelSet is static stream metadata used by the aggregator for indexing
type LabelSet map[string]string

// Record represents a single log entry. Treat as read-only once built.
type Record struct {
	Time    time.Time
	Level   int64
	Message string
	Fields  Fields
}

// NewRecord builds a record stamped with the current time.
// Base fields are applied first so caller fields win on key collision.
func NewRecord(level int64, msg string, base Fields, fields Fields) Record {
	merged := make(Fields, len(base)+len(fields))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return Record{
		Time:    time.Now(),
		Level:   level,
		Message: msg,
		Fields:  merged,
	}
}

// Clone returns an independent copy of the label set
func (ls LabelSet) Clone() LabelSet {
	c := make(LabelSet, len(ls))
	for k, v := range ls {
		c[k] = v
	}
	return c
}

// DestinationKind selects a transport variant
type DestinationKind int

const (
	DestinationStdout DestinationKind = iota
	DestinationRemote
)

// String returns the transport name for a destination kind
func (k DestinationKind) String() string {
	switch k {
	case DestinationStdout:
		return "stdout"
	case DestinationRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// AuthMode selects how the remote push request is authenticated
type AuthMode string

const (
	AuthBasic  AuthMode = "basic"
	AuthBearer AuthMode = "bearer"
)

// Auth holds remote credentials
type Auth struct {
	Mode   AuthMode
	User   string
	Secret string
}

// BatchPolicy bounds remote batching
type BatchPolicy struct {
	MaxEntries     int
	FlushInterval  time.Duration
	RequestTimeout time.Duration
}

// RemoteConfig is a fully resolved remote destination
type RemoteConfig struct {
	Host        string // scheme + authority, no trailing slash
	PushURL     string
	Auth        Auth
	TenantID    string
	Headers     map[string]string
	Labels      LabelSet
	Batch       BatchPolicy
	BufferLimit int
	Gzip        bool
	Heartbeat   time.Duration
}

// DestinationConfig describes one active destination
type DestinationConfig struct {
	Kind   DestinationKind
	Remote *RemoteConfig // nil for stdout
}

// Resolution is the outcome of destination resolution
type Resolution struct {
	Destinations []DestinationConfig
	Notice       string // reported once to stdout
	NoticeLevel  int64
	NoticeFields Fields
}
