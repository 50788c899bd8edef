// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracebridge copies the active span context onto log records so logs
// can be correlated with the trace they were written in.
package tracebridge // import "github.com/otel-log-samples/logpipeline/tracebridge"

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/otel-log-samples/logpipeline/record"
)

// Bridge stamps trace context onto record builders. It only reads the span
// context; it never starts, ends or modifies spans.
type Bridge struct {
	traceIDKey attribute.Key
	spanIDKey  attribute.Key
	flagsKey   attribute.Key
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithAttributeKeys also stores the hex encoded ids as attributes under the
// given keys, for backends that only index attributes. Empty keys are skipped.
func WithAttributeKeys(traceIDKey, spanIDKey string) Option {
	return func(b *Bridge) {
		b.traceIDKey = attribute.Key(traceIDKey)
		b.spanIDKey = attribute.Key(spanIDKey)
	}
}

// WithFlagsAttributeKey also stores the trace flags as a hex attribute.
func WithFlagsAttributeKey(key string) Option {
	return func(b *Bridge) {
		b.flagsKey = attribute.Key(key)
	}
}

// New returns a Bridge.
func New(opts ...Option) *Bridge {
	b := &Bridge{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Stamp copies the span context found in ctx onto rb. It is a no-op when
// ctx carries no valid span context.
func (b *Bridge) Stamp(ctx context.Context, rb *record.Builder) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	rb.TraceID = sc.TraceID()
	rb.SpanID = sc.SpanID()
	rb.TraceFlags = sc.TraceFlags()
	if b == nil {
		return
	}
	if b.traceIDKey != "" {
		rb.AddAttributes(b.traceIDKey.String(sc.TraceID().String()))
	}
	if b.spanIDKey != "" {
		rb.AddAttributes(b.spanIDKey.String(sc.SpanID().String()))
	}
	if b.flagsKey != "" {
		rb.AddAttributes(b.flagsKey.String(sc.TraceFlags().String()))
	}
}

// Stamp copies the span context of ctx onto rb without attribute mirroring.
func Stamp(ctx context.Context, rb *record.Builder) {
	(*Bridge)(nil).Stamp(ctx, rb)
}
