// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the log record flowing through the pipeline.
//
// A Builder is filled by the translator on the caller goroutine; New turns it
// into an immutable Record bound to a resource and an instrumentation scope.
package record // import "github.com/otel-log-samples/logpipeline/record"

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/otel-log-samples/logpipeline/resource"
)

// Scope identifies the logger that emitted a record.
type Scope struct {
	Name    string
	Version string
}

// Builder stages the fields of a record before it is sealed by New.
type Builder struct {
	Timestamp         time.Time
	ObservedTimestamp time.Time
	Severity          Severity
	SeverityText      string
	Body              string
	Attributes        []attribute.KeyValue
	TraceID           trace.TraceID
	SpanID            trace.SpanID
	TraceFlags        trace.TraceFlags
}

// AddAttributes appends kvs, keeping their order.
func (b *Builder) AddAttributes(kvs ...attribute.KeyValue) {
	b.Attributes = append(b.Attributes, kvs...)
}

// Record is an immutable log record. The zero value is an empty record
// without resource.
type Record struct {
	timestamp         time.Time
	observedTimestamp time.Time
	severity          Severity
	severityText      string
	body              string
	attributes        []attribute.KeyValue
	traceID           trace.TraceID
	spanID            trace.SpanID
	traceFlags        trace.TraceFlags
	scope             Scope
	resource          *resource.Descriptor
}

// New seals b into a Record. The attributes are copied so later changes to
// b do not leak into the record. A zero observed timestamp is set to now.
func New(res *resource.Descriptor, scope Scope, b Builder) Record {
	observed := b.ObservedTimestamp
	if observed.IsZero() {
		observed = time.Now()
	}
	var attrs []attribute.KeyValue
	if len(b.Attributes) > 0 {
		attrs = make([]attribute.KeyValue, len(b.Attributes))
		copy(attrs, b.Attributes)
	}
	text := b.SeverityText
	if text == "" && b.Severity != SeverityUndefined {
		text = b.Severity.String()
	}
	return Record{
		timestamp:         b.Timestamp,
		observedTimestamp: observed,
		severity:          b.Severity,
		severityText:      text,
		body:              b.Body,
		attributes:        attrs,
		traceID:           b.TraceID,
		spanID:            b.SpanID,
		traceFlags:        b.TraceFlags,
		scope:             scope,
		resource:          res,
	}
}

// Timestamp is the time the event occurred; may be zero if unknown.
func (r Record) Timestamp() time.Time { return r.timestamp }

// ObservedTimestamp is the time the pipeline first saw the event.
func (r Record) ObservedTimestamp() time.Time { return r.observedTimestamp }

func (r Record) Severity() Severity { return r.severity }

func (r Record) SeverityText() string { return r.severityText }

func (r Record) Body() string { return r.body }

// Attributes returns a copy of the attributes in emission order.
func (r Record) Attributes() []attribute.KeyValue {
	if len(r.attributes) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, len(r.attributes))
	copy(out, r.attributes)
	return out
}

// AttributesLen returns the number of attributes.
func (r Record) AttributesLen() int { return len(r.attributes) }

// WalkAttributes calls f for each attribute in order until f returns false.
func (r Record) WalkAttributes(f func(attribute.KeyValue) bool) {
	for _, kv := range r.attributes {
		if !f(kv) {
			return
		}
	}
}

func (r Record) TraceID() trace.TraceID { return r.traceID }

func (r Record) SpanID() trace.SpanID { return r.spanID }

func (r Record) TraceFlags() trace.TraceFlags { return r.traceFlags }

// HasTraceContext reports whether the record was emitted inside a valid span.
func (r Record) HasTraceContext() bool {
	return r.traceID.IsValid() && r.spanID.IsValid()
}

func (r Record) Scope() Scope { return r.scope }

// Resource returns the descriptor shared with every record of the same provider.
func (r Record) Resource() *resource.Descriptor { return r.resource }
