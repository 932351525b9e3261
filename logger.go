// FILE: lixenwraith/logship/logger.go
package logship

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
)

// Logger is the core struct that fans records out to a fixed set of transports
type Logger struct {
	cfg      *Config
	minLevel int64
	base     Fields // service, env, instance_id

	stdout     *StdoutTransport
	remote     *RemoteTransport // nil when remote shipping is disabled
	transports []Transport      // fixed after New

	state State
}

// Option customizes logger construction
type Option func(*options)

type options struct {
	writer     io.Writer
	client     *fasthttp.Client
	registerer prometheus.Registerer
	extra      []Transport
}

// WithWriter overrides the console target
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithHTTPClient sets the client used for remote pushes. Its dialers are
// wrapped so Shutdown can abort a push in flight.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithRegisterer registers transport counters on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithExtraTransport appends a transport after the built-in ones
func WithExtraTransport(t Transport) Option {
	return func(o *options) {
		if t != nil {
			o.extra = append(o.extra, t)
		}
	}
}

// New validates the configuration, resolves destinations and starts the transports.
// Only an invalid configuration is an error; an unusable remote destination
// degrades to stdout with a notice.
func New(cfg *Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		return nil, fmtErrorf("configuration cannot be nil")
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	w := o.writer
	if w == nil {
		w = os.Stdout
		if cfg.ConsoleTarget == "stderr" {
			w = os.Stderr
		}
	}

	l := &Logger{
		cfg:      cfg,
		minLevel: cfg.MinLevel(),
		base: Fields{
			FieldService:    cfg.Service,
			FieldEnv:        cfg.Environment,
			FieldInstanceID: uuid.NewString(),
		},
	}
	l.state.StartTime = time.Now()

	l.stdout = NewStdoutTransport(w, cfg.Format, cfg.TimestampFormat)
	stdoutMetrics, err := newTransportMetrics(o.registerer, l.stdout.Name())
	if err != nil {
		return nil, err
	}
	l.stdout.metrics = stdoutMetrics

	res := Resolve(cfg)
	for _, dest := range res.Destinations {
		switch dest.Kind {
		case DestinationStdout:
			l.transports = append(l.transports, l.stdout)
		case DestinationRemote:
			remoteMetrics, err := newTransportMetrics(o.registerer, DestinationRemote.String())
			if err != nil {
				return nil, err
			}
			l.remote = newRemoteTransport(dest.Remote, NoticeFunc(l.notice), o.client, remoteMetrics)
			l.transports = append(l.transports, l.remote)
		}
	}
	l.transports = append(l.transports, o.extra...)

	if res.Notice != "" {
		l.notice(res.NoticeLevel, res.Notice, res.NoticeFields)
	}

	return l, nil
}

// Transports returns the active transports in delivery order
func (l *Logger) Transports() []Transport {
	out := make([]Transport, len(l.transports))
	copy(out, l.transports)
	return out
}

// RemoteStats returns remote transport counters, ok is false when remote shipping is off
func (l *Logger) RemoteStats() (stats RemoteStats, ok bool) {
	if l.remote == nil {
		return RemoteStats{}, false
	}
	return l.remote.Stats(), true
}

// GetConfig returns a copy of the configuration in use
func (l *Logger) GetConfig() *Config {
	return l.cfg.Clone()
}

// Enabled reports whether a record at level would be emitted
func (l *Logger) Enabled(level int64) bool {
	return level >= l.minLevel && !l.state.LoggerDisabled.Load()
}
