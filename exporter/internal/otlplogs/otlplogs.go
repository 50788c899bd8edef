// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package otlplogs converts batches of records into the OTLP data model.
package otlplogs // import "github.com/otel-log-samples/logpipeline/exporter/internal/otlplogs"

import (
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/plog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/resource"
)

type resourceKey struct {
	attrs     attribute.Distinct
	schemaURL string
}

type scopeGroup struct {
	rl     plog.ResourceLogs
	scopes map[record.Scope]plog.ScopeLogs
}

// FromRecords groups records by resource and then by instrumentation scope.
// Groups keep the order in which they are first seen in the batch.
func FromRecords(records []record.Record) plog.Logs {
	ld := plog.NewLogs()
	groups := make(map[resourceKey]*scopeGroup)
	for i := range records {
		rec := &records[i]
		res := rec.Resource()
		key := resourceKey{attrs: res.Equivalent(), schemaURL: res.SchemaURL()}
		g, ok := groups[key]
		if !ok {
			g = &scopeGroup{rl: ld.ResourceLogs().AppendEmpty(), scopes: make(map[record.Scope]plog.ScopeLogs)}
			fillResource(g.rl, res)
			groups[key] = g
		}
		sl, ok := g.scopes[rec.Scope()]
		if !ok {
			sl = g.rl.ScopeLogs().AppendEmpty()
			sl.Scope().SetName(rec.Scope().Name)
			sl.Scope().SetVersion(rec.Scope().Version)
			g.scopes[rec.Scope()] = sl
		}
		fillLogRecord(sl.LogRecords().AppendEmpty(), rec)
	}
	return ld
}

func fillResource(rl plog.ResourceLogs, res *resource.Descriptor) {
	rl.SetSchemaUrl(res.SchemaURL())
	attrs := rl.Resource().Attributes()
	iter := res.Set().Iter()
	attrs.EnsureCapacity(iter.Len())
	for iter.Next() {
		PutAttribute(attrs, iter.Attribute())
	}
}

func fillLogRecord(lr plog.LogRecord, rec *record.Record) {
	if ts := rec.Timestamp(); !ts.IsZero() {
		lr.SetTimestamp(pcommon.NewTimestampFromTime(ts))
	}
	lr.SetObservedTimestamp(pcommon.NewTimestampFromTime(rec.ObservedTimestamp()))
	lr.SetSeverityNumber(plog.SeverityNumber(rec.Severity()))
	lr.SetSeverityText(rec.SeverityText())
	lr.Body().SetStr(rec.Body())

	attrs := lr.Attributes()
	attrs.EnsureCapacity(rec.AttributesLen())
	rec.WalkAttributes(func(kv attribute.KeyValue) bool {
		PutAttribute(attrs, kv)
		return true
	})

	if rec.HasTraceContext() {
		lr.SetTraceID(pcommon.TraceID(rec.TraceID()))
		lr.SetSpanID(pcommon.SpanID(rec.SpanID()))
		lr.SetFlags(plog.DefaultLogRecordFlags.WithIsSampled(rec.TraceFlags().IsSampled()))
	}
}

// PutAttribute stores kv into m, converting the value to the matching OTLP
// AnyValue kind. Invalid values are skipped.
func PutAttribute(m pcommon.Map, kv attribute.KeyValue) {
	k := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		m.PutBool(k, kv.Value.AsBool())
	case attribute.INT64:
		m.PutInt(k, kv.Value.AsInt64())
	case attribute.FLOAT64:
		m.PutDouble(k, kv.Value.AsFloat64())
	case attribute.STRING:
		m.PutStr(k, kv.Value.AsString())
	case attribute.BOOLSLICE:
		s := m.PutEmptySlice(k)
		for _, v := range kv.Value.AsBoolSlice() {
			s.AppendEmpty().SetBool(v)
		}
	case attribute.INT64SLICE:
		s := m.PutEmptySlice(k)
		for _, v := range kv.Value.AsInt64Slice() {
			s.AppendEmpty().SetInt(v)
		}
	case attribute.FLOAT64SLICE:
		s := m.PutEmptySlice(k)
		for _, v := range kv.Value.AsFloat64Slice() {
			s.AppendEmpty().SetDouble(v)
		}
	case attribute.STRINGSLICE:
		s := m.PutEmptySlice(k)
		for _, v := range kv.Value.AsStringSlice() {
			s.AppendEmpty().SetStr(v)
		}
	}
}
