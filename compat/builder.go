// FILE: lixenwraith/logship/compat/builder.go
package compat

import (
	"fmt"

	"github.com/lixenwraith/logship"
)

// Builder provides a flexible way to create configured logger adapters for gnet and fasthttp
// It can use an existing *logship.Logger instance or create a new one from a *logship.Config
type Builder struct {
	logger *logship.Logger
	logCfg *logship.Config
	opts   []logship.Option
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger specifies an existing logger to use for the adapters
// If this is set WithConfig is ignored
func (b *Builder) WithLogger(l *logship.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("logship/compat: provided logger cannot be nil")
		return b
	}
	b.logger = l
	return b
}

// WithConfig provides a configuration for a new logger instance
// This is used only if an existing logger is NOT provided via WithLogger
func (b *Builder) WithConfig(cfg *logship.Config, opts ...logship.Option) *Builder {
	b.logCfg = cfg
	b.opts = opts
	return b
}

// getLogger resolves the logger to be used, creating one if necessary
func (b *Builder) getLogger() (*logship.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.logger != nil {
		return b.logger, nil
	}

	cfg := b.logCfg
	if cfg == nil {
		cfg = logship.DefaultConfig()
	}

	l, err := logship.New(cfg, b.opts...)
	if err != nil {
		return nil, err
	}

	// Cache the newly created logger for subsequent builds with this builder
	b.logger = l
	return l, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.getLogger()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the underlying *logship.Logger instance
func (b *Builder) GetLogger() (*logship.Logger, error) {
	return b.getLogger()
}

// --- Example Usage ---
//
//	appLogger, err := logship.New(cfg)
//	if err != nil { /* handle error */ }
//
//	builder := compat.NewBuilder().WithLogger(appLogger)
//	gnetLogger, _ := builder.BuildGnet()
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	server := &fasthttp.Server{
//		Handler: compat.FastHTTPAccessLog(appLogger, handler),
//		Logger:  fasthttpLogger,
//	}
