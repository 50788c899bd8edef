// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otelslog provides a slog.Handler that emits every slog record as a
// log record through a provider. Combine it with the existing handler using
// Fanout to keep the application's usual output.
package otelslog // import "github.com/otel-log-samples/logpipeline/bridge/otelslog"

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/otel-log-samples/logpipeline/bridge/internal/attrconv"
	"github.com/otel-log-samples/logpipeline/provider"
	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/translator"
)

// ScopeName is the default instrumentation scope of the records.
const ScopeName = "github.com/otel-log-samples/logpipeline/bridge/otelslog"

type config struct {
	scopeName  string
	version    string
	translator *translator.Translator
	level      slog.Leveler
	source     bool
}

// Option configures the handler.
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

// WithLevel filters records before the provider's own severity check.
func WithLevel(l slog.Leveler) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithSource controls whether the code.* attributes are derived from the
// record's program counter. Enabled by default.
func WithSource(enabled bool) Option {
	return func(c *config) {
		c.source = enabled
	}
}

// Handler is a slog.Handler writing to a provider.
type Handler struct {
	logger     *provider.Logger
	translator *translator.Translator
	level      slog.Leveler
	source     bool

	attrs  []attribute.KeyValue
	prefix string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a Handler writing to lp.
func NewHandler(lp *provider.Provider, opts ...Option) *Handler {
	cfg := config{scopeName: ScopeName, source: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.translator == nil {
		cfg.translator = translator.New()
	}
	return &Handler{
		logger:     lp.Logger(cfg.scopeName, provider.WithVersion(cfg.version)),
		translator: cfg.translator,
		level:      cfg.level,
		source:     cfg.source,
	}
}

// Enabled reports whether a record at level would be emitted.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.level != nil && level < h.level.Level() {
		return false
	}
	return h.logger.Enabled(ctx, convertLevel(level))
}

// Handle emits r. The span context of ctx, if any, is copied onto the
// record.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fields := make([]attribute.KeyValue, len(h.attrs), len(h.attrs)+r.NumAttrs())
	copy(fields, h.attrs)
	var err error
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a, &err)
		return true
	})

	ev := translator.Event{
		Time:     r.Time,
		Severity: convertLevel(r.Level),
		Level:    r.Level.String(),
		Message:  r.Message,
		Fields:   fields,
		Err:      err,
	}
	if h.source && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		ev.Caller = translator.Caller{
			Defined:  frame.PC != 0,
			File:     frame.File,
			Line:     frame.Line,
			Function: frame.Function,
		}
	}
	h.logger.Emit(ctx, h.translator.Translate(ctx, ev))
	return nil
}

// WithAttrs returns a Handler adding attrs to every record, qualified by the
// groups opened so far.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		// Errors bound here keep their key; only Handle turns an error
		// into the record exception.
		clone.attrs = appendAttr(clone.attrs, h.prefix, a, nil)
	}
	return clone
}

// WithGroup returns a Handler qualifying later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.prefix = attrconv.Key(h.prefix, name)
	return clone
}

func (h *Handler) clone() *Handler {
	attrs := make([]attribute.KeyValue, len(h.attrs))
	copy(attrs, h.attrs)
	return &Handler{
		logger:     h.logger,
		translator: h.translator,
		level:      h.level,
		source:     h.source,
		attrs:      attrs,
		prefix:     h.prefix,
	}
}

// appendAttr converts a, flattening groups into dotted keys. If errp is not
// nil, the first error value is stored in it instead of being converted.
func appendAttr(dst []attribute.KeyValue, prefix string, a slog.Attr, errp *error) []attribute.KeyValue {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := attrconv.Key(prefix, a.Key)
	v := a.Value
	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		if len(group) == 0 {
			return dst
		}
		if a.Key != "" {
			prefix = key
		}
		for _, ga := range group {
			dst = appendAttr(dst, prefix, ga, errp)
		}
		return dst
	case slog.KindString:
		return append(dst, attribute.String(key, v.String()))
	case slog.KindInt64:
		return append(dst, attribute.Int64(key, v.Int64()))
	case slog.KindUint64:
		return append(dst, attrconv.Uint64(key, v.Uint64()))
	case slog.KindFloat64:
		return append(dst, attribute.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(dst, attribute.Bool(key, v.Bool()))
	case slog.KindDuration:
		return append(dst, attribute.String(key, v.Duration().String()))
	case slog.KindTime:
		return append(dst, attribute.String(key, v.Time().Format(time.RFC3339Nano)))
	}
	if e, ok := v.Any().(error); ok && errp != nil && *errp == nil {
		*errp = e
		return dst
	}
	return attrconv.Append(dst, key, v.Any())
}

func convertLevel(level slog.Level) record.Severity {
	sev := record.Severity(level + 9)
	return min(max(sev, record.SeverityTrace), record.SeverityFatal4)
}
