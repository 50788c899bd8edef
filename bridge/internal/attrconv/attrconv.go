// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package attrconv converts arbitrary Go values logged through a bridge into
// record attributes.
package attrconv // import "github.com/otel-log-samples/logpipeline/bridge/internal/attrconv"

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel/attribute"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Key joins a dotted prefix and key.
func Key(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Append converts v and appends the result to dst. Maps keyed by strings are
// flattened into one attribute per entry with dotted keys, sorted by key.
// Homogeneous slices of scalars keep their type; anything else is encoded
// as a JSON string.
func Append(dst []attribute.KeyValue, key string, v any) []attribute.KeyValue {
	switch val := v.(type) {
	case nil:
		return append(dst, attribute.String(key, "<nil>"))
	case string:
		return append(dst, attribute.String(key, val))
	case bool:
		return append(dst, attribute.Bool(key, val))
	case int:
		return append(dst, attribute.Int(key, val))
	case int8:
		return append(dst, attribute.Int64(key, int64(val)))
	case int16:
		return append(dst, attribute.Int64(key, int64(val)))
	case int32:
		return append(dst, attribute.Int64(key, int64(val)))
	case int64:
		return append(dst, attribute.Int64(key, val))
	case uint8:
		return append(dst, attribute.Int64(key, int64(val)))
	case uint16:
		return append(dst, attribute.Int64(key, int64(val)))
	case uint32:
		return append(dst, attribute.Int64(key, int64(val)))
	case uint:
		return append(dst, Uint64(key, uint64(val)))
	case uint64:
		return append(dst, Uint64(key, val))
	case float32:
		return append(dst, attribute.Float64(key, float64(val)))
	case float64:
		return append(dst, attribute.Float64(key, val))
	case time.Duration:
		return append(dst, attribute.String(key, val.String()))
	case time.Time:
		return append(dst, attribute.String(key, val.Format(time.RFC3339Nano)))
	case []byte:
		return append(dst, attribute.String(key, string(val)))
	case []string:
		return append(dst, attribute.StringSlice(key, val))
	case []bool:
		return append(dst, attribute.BoolSlice(key, val))
	case []int:
		return append(dst, attribute.IntSlice(key, val))
	case []int64:
		return append(dst, attribute.Int64Slice(key, val))
	case []float64:
		return append(dst, attribute.Float64Slice(key, val))
	case map[string]any:
		return appendMap(dst, key, val)
	case map[string]string:
		keys := sortedKeys(val)
		for _, k := range keys {
			dst = append(dst, attribute.String(Key(key, k), val[k]))
		}
		return dst
	case error:
		return append(dst, attribute.String(key, val.Error()))
	case fmt.Stringer:
		return append(dst, attribute.String(key, val.String()))
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return appendMap(dst, key, m)
	}
	return append(dst, attribute.String(key, JSONString(v)))
}

func appendMap(dst []attribute.KeyValue, prefix string, m map[string]any) []attribute.KeyValue {
	for _, k := range sortedKeys(m) {
		dst = Append(dst, Key(prefix, k), m[k])
	}
	return dst
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Uint64 stores v as an int64 when it fits and as a decimal string
// otherwise.
func Uint64(key string, v uint64) attribute.KeyValue {
	if v > 1<<63-1 {
		return attribute.String(key, fmt.Sprintf("%d", v))
	}
	return attribute.Int64(key, int64(v))
}

// JSONString encodes v as JSON, falling back to %v when v is not encodable.
func JSONString(v any) string {
	s, err := json.MarshalToString(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}
