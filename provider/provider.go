// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider holds the resource and the processors of the pipeline and
// hands out named loggers that emit records into it.
package provider // import "github.com/otel-log-samples/logpipeline/provider"

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/otel-log-samples/logpipeline/processor"
	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/resource"
)

type config struct {
	processors  []processor.Logs
	minSeverity record.Severity
}

// Option configures a Provider.
type Option func(*config)

// WithProcessor registers p. Records are handed to processors in
// registration order.
func WithProcessor(p processor.Logs) Option {
	return func(c *config) {
		c.processors = append(c.processors, p)
	}
}

// WithMinSeverity drops records whose severity is below sev. Records with an
// undefined severity are always kept.
func WithMinSeverity(sev record.Severity) Option {
	return func(c *config) {
		c.minSeverity = sev
	}
}

// Provider is the entry point of the pipeline. It is safe for concurrent
// use.
type Provider struct {
	resource    *resource.Descriptor
	processors  []processor.Logs
	minSeverity record.Severity

	mu      sync.Mutex
	loggers map[record.Scope]*Logger

	stopped      atomic.Bool
	shutdownOnce sync.Once
}

// New returns a Provider describing res. A nil res is treated as empty.
func New(res *resource.Descriptor, opts ...Option) *Provider {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if res == nil {
		res = resource.Empty()
	}
	return &Provider{
		resource:    res,
		processors:  cfg.processors,
		minSeverity: cfg.minSeverity,
		loggers:     make(map[record.Scope]*Logger),
	}
}

// Resource returns the resource every record of p is bound to.
func (p *Provider) Resource() *resource.Descriptor {
	return p.resource
}

// LoggerOption configures a Logger.
type LoggerOption func(*record.Scope)

// WithVersion sets the instrumentation scope version.
func WithVersion(version string) LoggerOption {
	return func(s *record.Scope) {
		s.Version = version
	}
}

// Logger returns the logger of the instrumentation scope name. Calls with
// the same name and version return the same Logger.
func (p *Provider) Logger(name string, opts ...LoggerOption) *Logger {
	scope := record.Scope{Name: name}
	for _, opt := range opts {
		opt(&scope)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.loggers[scope]; ok {
		return l
	}
	l := &Logger{provider: p, scope: scope}
	p.loggers[scope] = l
	return l
}

// ForceFlush flushes every processor and combines their errors.
func (p *Provider) ForceFlush(ctx context.Context) error {
	if p.stopped.Load() {
		return nil
	}
	var errs error
	for _, proc := range p.processors {
		errs = multierr.Append(errs, proc.ForceFlush(ctx))
	}
	return errs
}

// Shutdown stops emission and shuts every processor down. Calls after the
// first return nil.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs error
	p.shutdownOnce.Do(func() {
		p.stopped.Store(true)
		for _, proc := range p.processors {
			errs = multierr.Append(errs, proc.Shutdown(ctx))
		}
	})
	return errs
}

// Logger emits records for one instrumentation scope.
type Logger struct {
	provider *Provider
	scope    record.Scope
}

// Scope returns the instrumentation scope of l.
func (l *Logger) Scope() record.Scope {
	return l.scope
}

// Enabled reports whether a record of severity sev would be emitted.
func (l *Logger) Enabled(_ context.Context, sev record.Severity) bool {
	p := l.provider
	if p.stopped.Load() || len(p.processors) == 0 {
		return false
	}
	return sev == record.SeverityUndefined || sev >= p.minSeverity
}

// Emit seals b into a record and hands it to every processor. Processor
// errors mean the record was dropped and are not reported.
func (l *Logger) Emit(ctx context.Context, b record.Builder) {
	if !l.Enabled(ctx, b.Severity) {
		return
	}
	rec := record.New(l.provider.resource, l.scope, b)
	for _, proc := range l.provider.processors {
		_ = proc.OnEmit(ctx, rec)
	}
}
