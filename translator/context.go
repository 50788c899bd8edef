// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package translator // import "github.com/otel-log-samples/logpipeline/translator"

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

type contextAttributesKey struct{}

// ContextWithAttributes returns a copy of ctx carrying kvs in addition to the
// attributes already attached to it. A key set again replaces the earlier
// value in place. Every record translated with the returned context gets
// these attributes.
func ContextWithAttributes(ctx context.Context, kvs ...attribute.KeyValue) context.Context {
	if len(kvs) == 0 {
		return ctx
	}
	parent := ContextAttributes(ctx)
	merged := make([]attribute.KeyValue, len(parent), len(parent)+len(kvs))
	copy(merged, parent)
	for _, kv := range kvs {
		replaced := false
		for i := range merged {
			if merged[i].Key == kv.Key {
				merged[i] = kv
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, kv)
		}
	}
	return context.WithValue(ctx, contextAttributesKey{}, merged)
}

// ContextAttributes returns the attributes attached to ctx. The returned
// slice must not be modified.
func ContextAttributes(ctx context.Context) []attribute.KeyValue {
	if ctx == nil {
		return nil
	}
	kvs, _ := ctx.Value(contextAttributesKey{}).([]attribute.KeyValue)
	return kvs
}

// ContextWithoutAttributes returns a copy of ctx with no context attributes.
func ContextWithoutAttributes(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextAttributesKey{}, []attribute.KeyValue(nil))
}
