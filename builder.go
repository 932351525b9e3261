// FILE: lixenwraith/logship/builder.go
package logship

import (
	"io"
)

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger instance with the specified configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	// New handles validation and destination resolution.
	return New(b.cfg, b.opts...)
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Level sets the minimum level from a string.
func (b *Builder) Level(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := Level(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = level
	return b
}

// Format sets the console line format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Service sets the service identity.
func (b *Builder) Service(name string) *Builder {
	b.cfg.Service = name
	return b
}

// Environment sets the deployment environment.
func (b *Builder) Environment(env string) *Builder {
	b.cfg.Environment = env
	return b
}

// Remote sets the remote host and credentials.
func (b *Builder) Remote(url, user, secret string) *Builder {
	b.cfg.RemoteURL = url
	b.cfg.RemoteUser = user
	b.cfg.RemoteSecret = secret
	return b
}

// Tenant sets the tenant id sent with every push.
func (b *Builder) Tenant(tenant string) *Builder {
	b.cfg.RemoteTenant = tenant
	return b
}

// BearerAuth switches remote authentication to a bearer token.
func (b *Builder) BearerAuth() *Builder {
	b.cfg.RemoteAuth = string(AuthBearer)
	return b
}

// Labels sets additional stream labels.
func (b *Builder) Labels(labels string) *Builder {
	b.cfg.RemoteLabels = labels
	return b
}

// Gzip enables compressed push bodies.
func (b *Builder) Gzip(enable bool) *Builder {
	b.cfg.RemoteGzip = enable
	return b
}

// Batch sets the batch size and flush interval.
func (b *Builder) Batch(maxEntries, flushIntervalMs int64) *Builder {
	b.cfg.BatchMaxEntries = maxEntries
	b.cfg.FlushIntervalMs = flushIntervalMs
	return b
}

// BufferLimit caps records held for the remote destination.
func (b *Builder) BufferLimit(limit int64) *Builder {
	b.cfg.BufferLimit = limit
	return b
}

// HeartbeatIntervalS sets the remote heartbeat interval, 0 disables it.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// Writer overrides the console target.
func (b *Builder) Writer(w io.Writer) *Builder {
	b.opts = append(b.opts, WithWriter(w))
	return b
}

// Options appends construction options.
func (b *Builder) Options(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Example usage:
// logger, err := logship.NewBuilder().
//
//	Service("checkout").
//	Environment("staging").
//	Remote("https://logs.example.com", "12345", token).
//	Level("debug").
//	Build()
//
// if err == nil {
//
//	 defer logger.Shutdown(0)
//	 logger.Info("logger initialized")
//
// }
