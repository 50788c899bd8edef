// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package normal renders log records as compact text, one line per record.
package normal // import "github.com/otel-log-samples/logpipeline/exporter/debugexporter/internal/normal"

import (
	"bytes"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/otel-log-samples/logpipeline/record"
	"github.com/otel-log-samples/logpipeline/resource"
)

// Records renders records in batch order. A header line is written whenever
// the resource or the scope changes from the previous record.
func Records(records []record.Record) []byte {
	var (
		buf       bytes.Buffer
		res       *resource.Descriptor
		scope     record.Scope
		resources int
		scopes    int
	)
	for i := range records {
		rec := &records[i]
		if i == 0 || !sameResource(res, rec.Resource()) {
			res = rec.Resource()
			fmt.Fprintf(&buf, "Resource #%d%s%s\n", resources, schemaDetails(res.SchemaURL()), attributesString(res.Attributes()))
			resources++
			scopes = 0
			scope = rec.Scope()
			writeScope(&buf, scopes, scope)
			scopes++
		} else if rec.Scope() != scope {
			scope = rec.Scope()
			writeScope(&buf, scopes, scope)
			scopes++
		}
		writeRecord(&buf, rec)
	}
	return buf.Bytes()
}

// Resources counts the distinct resources of records.
func Resources(records []record.Record) int {
	seen := make(map[resourceKey]struct{})
	for i := range records {
		res := records[i].Resource()
		seen[resourceKey{res.Equivalent(), res.SchemaURL()}] = struct{}{}
	}
	return len(seen)
}

type resourceKey struct {
	attrs     attribute.Distinct
	schemaURL string
}

func sameResource(a, b *resource.Descriptor) bool {
	return a == b || (a.Equivalent() == b.Equivalent() && a.SchemaURL() == b.SchemaURL())
}

func writeScope(buf *bytes.Buffer, n int, scope record.Scope) {
	name := scope.Name
	if scope.Version != "" {
		name += "@" + scope.Version
	}
	if name != "" {
		name = " " + name
	}
	fmt.Fprintf(buf, "Scope #%d%s\n", n, name)
}

func writeRecord(buf *bytes.Buffer, rec *record.Record) {
	severity := rec.SeverityText()
	if severity == "" && rec.Severity() != record.SeverityUndefined {
		severity = rec.Severity().String()
	}
	if severity != "" {
		buf.WriteString(severity)
		buf.WriteByte(' ')
	}
	buf.WriteString(rec.Body())
	rec.WalkAttributes(func(kv attribute.KeyValue) bool {
		fmt.Fprintf(buf, " %s=%s", kv.Key, kv.Value.Emit())
		return true
	})
	if rec.HasTraceContext() {
		fmt.Fprintf(buf, " trace_id=%s span_id=%s", rec.TraceID(), rec.SpanID())
	}
	buf.WriteByte('\n')
}

func schemaDetails(schemaURL string) string {
	if schemaURL == "" {
		return ""
	}
	return " [" + schemaURL + "]"
}

func attributesString(kvs []attribute.KeyValue) string {
	var buf bytes.Buffer
	for _, kv := range kvs {
		fmt.Fprintf(&buf, " %s=%s", kv.Key, kv.Value.Emit())
	}
	return buf.String()
}
