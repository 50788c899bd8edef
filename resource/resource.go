// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package resource describes the entity producing telemetry. A Descriptor is
// built once per process and shared by pointer by every log record.
package resource // import "github.com/otel-log-samples/logpipeline/resource"

import (
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// Descriptor is an immutable set of attributes identifying the process.
type Descriptor struct {
	attrs     attribute.Set
	schemaURL string
}

var empty = &Descriptor{attrs: attribute.NewSet()}

// Empty returns a Descriptor without attributes.
func Empty() *Descriptor {
	return empty
}

// NewWithAttributes returns a Descriptor holding kvs. On duplicate keys the
// last value wins. Invalid attributes are dropped.
func NewWithAttributes(schemaURL string, kvs ...attribute.KeyValue) *Descriptor {
	valid := make([]attribute.KeyValue, 0, len(kvs))
	for _, kv := range kvs {
		if kv.Valid() {
			valid = append(valid, kv)
		}
	}
	return &Descriptor{
		attrs:     attribute.NewSet(valid...),
		schemaURL: schemaURL,
	}
}

// Attributes returns a copy of the attributes, sorted by key.
func (d *Descriptor) Attributes() []attribute.KeyValue {
	if d == nil {
		return nil
	}
	return d.attrs.ToSlice()
}

// Set returns the underlying attribute set.
func (d *Descriptor) Set() *attribute.Set {
	if d == nil {
		return empty.Set()
	}
	return &d.attrs
}

// Len returns the number of attributes.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return d.attrs.Len()
}

// Get returns the value stored for key.
func (d *Descriptor) Get(key attribute.Key) (attribute.Value, bool) {
	if d == nil {
		return attribute.Value{}, false
	}
	return d.attrs.Value(key)
}

// SchemaURL returns the semantic conventions schema the attributes follow.
func (d *Descriptor) SchemaURL() string {
	if d == nil {
		return ""
	}
	return d.schemaURL
}

// Equivalent returns a comparable value identifying the attribute set, used
// as a map key when grouping records by resource.
func (d *Descriptor) Equivalent() attribute.Distinct {
	return d.Set().Equivalent()
}

// Merge returns a new Descriptor holding the attributes of d and other. Values
// from other win on key conflicts, as does a non-empty schema URL of other.
func (d *Descriptor) Merge(other *Descriptor) *Descriptor {
	if other == nil || other.Len() == 0 && other.schemaURL == "" {
		return d
	}
	if d == nil || d.Len() == 0 && d.schemaURL == "" {
		return other
	}
	schemaURL := d.schemaURL
	if other.schemaURL != "" {
		schemaURL = other.schemaURL
	}
	kvs := append(d.Attributes(), other.Attributes()...)
	return NewWithAttributes(schemaURL, kvs...)
}

// String returns the attributes encoded as key=value pairs.
func (d *Descriptor) String() string {
	return d.Set().Encoded(attribute.DefaultEncoder())
}

// SDK converts d into the resource type consumed by the OpenTelemetry SDK
// providers, so traces and self metrics share the log pipeline identity.
func (d *Descriptor) SDK() *sdkresource.Resource {
	return sdkresource.NewWithAttributes(d.SchemaURL(), d.Attributes()...)
}
