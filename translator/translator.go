// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package translator turns a logging framework's native event into a record
// builder. It runs on the caller goroutine and does no I/O.
package translator // import "github.com/otel-log-samples/logpipeline/translator"

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/tracebridge"
)

// Caller is the source location of a log call.
type Caller struct {
	Defined  bool
	File     string
	Line     int
	Function string
}

// Event is a framework neutral log event, as handed over by a bridge.
type Event struct {
	Time     time.Time
	Severity record.Severity
	// Level is the framework's own level name, used as severity text.
	Level   string
	Message string
	Caller  Caller
	// Fields are the structured fields of the call, in call order.
	Fields []attribute.KeyValue
	Err    error
	// Stack is a preformatted stack trace, if the framework captured one.
	Stack string
}

// Translator converts events into record builders.
type Translator struct {
	bridge    *tracebridge.Bridge
	addCaller bool
	now       func() time.Time
}

// Option configures a Translator.
type Option func(*Translator)

// WithCaller adds code.filepath, code.lineno and code.function when the
// event has a defined caller.
func WithCaller(enabled bool) Option {
	return func(t *Translator) {
		t.addCaller = enabled
	}
}

// WithBridge replaces the default trace context bridge.
func WithBridge(b *tracebridge.Bridge) Option {
	return func(t *Translator) {
		t.bridge = b
	}
}

// New returns a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{
		bridge:    tracebridge.New(),
		addCaller: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate converts ev. Attributes are ordered as: event fields, context
// attributes, caller, exception. The span context of ctx, if any, is copied
// last.
func (t *Translator) Translate(ctx context.Context, ev Event) record.Builder {
	now := t.now()
	ts := ev.Time
	if ts.IsZero() {
		ts = now
	}
	sev := ev.Severity
	if !sev.Valid() {
		sev = record.SeverityUndefined
	}
	text := ev.Level
	if text == "" && sev != record.SeverityUndefined {
		text = sev.String()
	}

	ctxAttrs := ContextAttributes(ctx)
	rb := record.Builder{
		Timestamp:         ts,
		ObservedTimestamp: now,
		Severity:          sev,
		SeverityText:      text,
		Body:              ev.Message,
		Attributes:        make([]attribute.KeyValue, 0, len(ev.Fields)+len(ctxAttrs)+6),
	}
	for _, kv := range ev.Fields {
		if kv.Valid() {
			rb.Attributes = append(rb.Attributes, kv)
		}
	}
	rb.AddAttributes(ctxAttrs...)
	if t.addCaller && ev.Caller.Defined {
		rb.AddAttributes(callerAttributes(ev.Caller)...)
	}
	if ev.Err != nil || ev.Stack != "" {
		rb.AddAttributes(ExceptionAttributes(ev.Err, ev.Stack)...)
	}
	t.bridge.Stamp(ctx, &rb)
	return rb
}

func callerAttributes(c Caller) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, 3)
	if c.File != "" {
		kvs = append(kvs, semconv.CodeFilepath(c.File))
	}
	if c.Line > 0 {
		kvs = append(kvs, semconv.CodeLineNumber(c.Line))
	}
	if c.Function != "" {
		kvs = append(kvs, semconv.CodeFunction(c.Function))
	}
	return kvs
}

// ExceptionAttributes describes err with the exception.* attributes. When
// stack is empty and err formats a stack trace with %+v, that trace is used.
func ExceptionAttributes(err error, stack string) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, 3)
	if err != nil {
		kvs = append(kvs,
			semconv.ExceptionType(errorType(err)),
			semconv.ExceptionMessage(err.Error()),
		)
		if stack == "" {
			if _, ok := err.(fmt.Formatter); ok {
				if verbose := fmt.Sprintf("%+v", err); verbose != err.Error() {
					stack = verbose
				}
			}
		}
	}
	if stack != "" {
		kvs = append(kvs, semconv.ExceptionStacktrace(stack))
	}
	return kvs
}

func errorType(err error) string {
	t := reflect.TypeOf(err)
	if t.PkgPath() == "" && t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
