// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otelzap provides a zapcore.Core that emits every zap entry as a log
// record through a provider. Tee it with the existing core so the
// application keeps writing its usual output:
//
//	core := zapcore.NewTee(logger.Core(), otelzap.NewCore(lp))
//	logger = zap.New(core)
package otelzap // import "github.com/otel-log-samples/logpipeline/bridge/otelzap"

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/provider"
	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/translator"
)

// ScopeName is the default instrumentation scope of the records.
const ScopeName = "github.com/otel-log-samples/logpipeline/bridge/otelzap"

const contextKey = "otel.context"

// loggerNameKey holds the name given with zap.Logger.Named.
const loggerNameKey = attribute.Key("logger.name")

// Context returns a field carrying ctx. The span context and the context
// attributes of ctx are copied onto the record; the field itself is not
// written as an attribute.
func Context(ctx context.Context) zap.Field {
	return zap.Field{Key: contextKey, Type: zapcore.SkipType, Interface: ctx}
}

type config struct {
	scopeName  string
	version    string
	translator *translator.Translator
	level      zapcore.LevelEnabler
}

// Option configures the core.
type Option func(*config)

// WithScope sets the instrumentation scope name and version.
func WithScope(name, version string) Option {
	return func(c *config) {
		c.scopeName = name
		c.version = version
	}
}

// WithTranslator replaces the default translator.
func WithTranslator(t *translator.Translator) Option {
	return func(c *config) {
		c.translator = t
	}
}

// WithLevel filters entries before the provider's own severity check.
func WithLevel(enab zapcore.LevelEnabler) Option {
	return func(c *config) {
		c.level = enab
	}
}

type core struct {
	logger     *provider.Logger
	translator *translator.Translator
	level      zapcore.LevelEnabler
	enc        *objectEncoder
	ctx        context.Context
}

// NewCore returns a zapcore.Core writing to lp.
func NewCore(lp *provider.Provider, opts ...Option) zapcore.Core {
	cfg := config{scopeName: ScopeName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.translator == nil {
		cfg.translator = translator.New()
	}
	return &core{
		logger:     lp.Logger(cfg.scopeName, provider.WithVersion(cfg.version)),
		translator: cfg.translator,
		level:      cfg.level,
		enc:        &objectEncoder{},
		ctx:        context.Background(),
	}
}

func (c *core) Enabled(lvl zapcore.Level) bool {
	if c.level != nil && !c.level.Enabled(lvl) {
		return false
	}
	return c.logger.Enabled(c.ctx, convertLevel(lvl))
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{
		logger:     c.logger,
		translator: c.translator,
		level:      c.level,
		enc:        c.enc.clone(),
		ctx:        c.ctx,
	}
	for _, f := range fields {
		if ctx, ok := contextOf(f); ok {
			clone.ctx = ctx
			continue
		}
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := c.enc.clone()
	ctx := c.ctx
	var err error
	for _, f := range fields {
		if fctx, ok := contextOf(f); ok {
			ctx = fctx
			continue
		}
		if f.Type == zapcore.ErrorType && err == nil {
			if e, ok := f.Interface.(error); ok {
				err = e
				continue
			}
		}
		f.AddTo(enc)
	}
	if ent.LoggerName != "" {
		enc.attrs = append(enc.attrs, loggerNameKey.String(ent.LoggerName))
	}

	rb := c.translator.Translate(ctx, translator.Event{
		Time:     ent.Time,
		Severity: convertLevel(ent.Level),
		Level:    ent.Level.CapitalString(),
		Message:  ent.Message,
		Caller: translator.Caller{
			Defined:  ent.Caller.Defined,
			File:     ent.Caller.File,
			Line:     ent.Caller.Line,
			Function: ent.Caller.Function,
		},
		Fields: enc.attrs,
		Err:    err,
		Stack:  ent.Stack,
	})
	c.logger.Emit(ctx, rb)
	return nil
}

// Sync is a no-op; records are flushed through the provider.
func (c *core) Sync() error { return nil }

func contextOf(f zapcore.Field) (context.Context, bool) {
	if f.Type != zapcore.SkipType || f.Key != contextKey {
		return nil, false
	}
	ctx, ok := f.Interface.(context.Context)
	return ctx, ok && ctx != nil
}

func convertLevel(lvl zapcore.Level) record.Severity {
	switch {
	case lvl < zapcore.DebugLevel:
		return record.SeverityTrace
	case lvl == zapcore.DebugLevel:
		return record.SeverityDebug
	case lvl == zapcore.InfoLevel:
		return record.SeverityInfo
	case lvl == zapcore.WarnLevel:
		return record.SeverityWarn
	case lvl == zapcore.ErrorLevel:
		return record.SeverityError
	case lvl == zapcore.DPanicLevel:
		return record.SeverityFatal
	case lvl == zapcore.PanicLevel:
		return record.SeverityFatal2
	default:
		return record.SeverityFatal3
	}
}
