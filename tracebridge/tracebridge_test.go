// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package tracebridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/otel-log-samples/logpipeline/record"
)

func TestStampWithoutSpan(t *testing.T) {
	var rb record.Builder
	Stamp(context.Background(), &rb)
	assert.False(t, rb.TraceID.IsValid())
	assert.False(t, rb.SpanID.IsValid())
	assert.Empty(t, rb.Attributes)
}

func TestStampInsideSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "user_registration_process")
	var rb record.Builder
	Stamp(ctx, &rb)
	span.End()

	sc := span.SpanContext()
	assert.Equal(t, sc.TraceID(), rb.TraceID)
	assert.Equal(t, sc.SpanID(), rb.SpanID)
	assert.True(t, rb.TraceFlags.IsSampled())
	assert.Empty(t, rb.Attributes)

	// read-only: the span is not altered
	require.Len(t, recorder.Ended(), 1)
	assert.Empty(t, recorder.Ended()[0].Attributes())
}

func TestStampChildSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { require.NoError(t, tp.Shutdown(context.Background())) }()
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "parent")
	defer parent.End()
	childCtx, child := tracer.Start(ctx, "user_validation")
	defer child.End()

	var rb record.Builder
	Stamp(childCtx, &rb)
	assert.Equal(t, parent.SpanContext().TraceID(), rb.TraceID)
	assert.Equal(t, child.SpanContext().SpanID(), rb.SpanID)
}

func TestStampMirrorsAttributes(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x0a, 0x0b},
		SpanID:  trace.SpanID{0x0c},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	b := New(WithAttributeKeys("trace_id", "span_id"), WithFlagsAttributeKey("trace_flags"))
	rb := record.Builder{Attributes: []attribute.KeyValue{attribute.String("user_id", "user_12345")}}
	b.Stamp(ctx, &rb)

	assert.Equal(t, []attribute.KeyValue{
		attribute.String("user_id", "user_12345"),
		attribute.String("trace_id", sc.TraceID().String()),
		attribute.String("span_id", sc.SpanID().String()),
		attribute.String("trace_flags", "00"),
	}, rb.Attributes)
	assert.False(t, rb.TraceFlags.IsSampled())
}

func TestStampInvalidContextNoAttributes(t *testing.T) {
	b := New(WithAttributeKeys("trace_id", "span_id"))
	var rb record.Builder
	b.Stamp(context.Background(), &rb)
	assert.Empty(t, rb.Attributes)
}
