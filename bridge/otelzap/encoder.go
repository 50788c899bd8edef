// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package otelzap // import "github.com/otel-log-samples/logpipeline/bridge/otelzap"

import (
	"encoding/base64"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zapcore"

	"github.com/otel-log-samples/logpipeline/bridge/internal/attrconv"
)

// objectEncoder collects zap fields as attributes. Namespaces and nested
// objects become dotted key prefixes.
type objectEncoder struct {
	attrs  []attribute.KeyValue
	prefix string
}

var _ zapcore.ObjectEncoder = (*objectEncoder)(nil)

func (e *objectEncoder) clone() *objectEncoder {
	attrs := make([]attribute.KeyValue, len(e.attrs))
	copy(attrs, e.attrs)
	return &objectEncoder{attrs: attrs, prefix: e.prefix}
}

func (e *objectEncoder) key(k string) string { return attrconv.Key(e.prefix, k) }

func (e *objectEncoder) add(kv attribute.KeyValue) { e.attrs = append(e.attrs, kv) }

func (e *objectEncoder) AddArray(key string, marshaler zapcore.ArrayMarshaler) error {
	arr := &arrayEncoder{}
	err := marshaler.MarshalLogArray(arr)
	e.add(arr.attribute(e.key(key)))
	return err
}

func (e *objectEncoder) AddObject(key string, marshaler zapcore.ObjectMarshaler) error {
	child := &objectEncoder{prefix: e.key(key)}
	err := marshaler.MarshalLogObject(child)
	e.attrs = append(e.attrs, child.attrs...)
	return err
}

func (e *objectEncoder) AddBinary(key string, value []byte) {
	e.add(attribute.String(e.key(key), base64.StdEncoding.EncodeToString(value)))
}

func (e *objectEncoder) AddByteString(key string, value []byte) {
	e.add(attribute.String(e.key(key), string(value)))
}

func (e *objectEncoder) AddBool(key string, value bool) { e.add(attribute.Bool(e.key(key), value)) }

func (e *objectEncoder) AddComplex128(key string, value complex128) {
	e.add(attribute.String(e.key(key), formatComplex(value)))
}

func (e *objectEncoder) AddComplex64(key string, value complex64) {
	e.AddComplex128(key, complex128(value))
}

func (e *objectEncoder) AddDuration(key string, value time.Duration) {
	e.add(attribute.String(e.key(key), value.String()))
}

func (e *objectEncoder) AddFloat64(key string, value float64) {
	e.add(attribute.Float64(e.key(key), value))
}

func (e *objectEncoder) AddFloat32(key string, value float32) { e.AddFloat64(key, float64(value)) }

func (e *objectEncoder) AddInt(key string, value int) { e.AddInt64(key, int64(value)) }

func (e *objectEncoder) AddInt64(key string, value int64) {
	e.add(attribute.Int64(e.key(key), value))
}

func (e *objectEncoder) AddInt32(key string, value int32) { e.AddInt64(key, int64(value)) }

func (e *objectEncoder) AddInt16(key string, value int16) { e.AddInt64(key, int64(value)) }

func (e *objectEncoder) AddInt8(key string, value int8) { e.AddInt64(key, int64(value)) }

func (e *objectEncoder) AddString(key, value string) { e.add(attribute.String(e.key(key), value)) }

func (e *objectEncoder) AddTime(key string, value time.Time) {
	e.add(attribute.String(e.key(key), value.Format(time.RFC3339Nano)))
}

func (e *objectEncoder) AddUint(key string, value uint) { e.AddUint64(key, uint64(value)) }

func (e *objectEncoder) AddUint64(key string, value uint64) {
	e.add(attrconv.Uint64(e.key(key), value))
}

func (e *objectEncoder) AddUint32(key string, value uint32) { e.AddUint64(key, uint64(value)) }

func (e *objectEncoder) AddUint16(key string, value uint16) { e.AddUint64(key, uint64(value)) }

func (e *objectEncoder) AddUint8(key string, value uint8) { e.AddUint64(key, uint64(value)) }

func (e *objectEncoder) AddUintptr(key string, value uintptr) { e.AddUint64(key, uint64(value)) }

func (e *objectEncoder) AddReflected(key string, value interface{}) error {
	e.attrs = attrconv.Append(e.attrs, e.key(key), value)
	return nil
}

func (e *objectEncoder) OpenNamespace(key string) {
	e.prefix = e.key(key)
}

// arrayEncoder collects array elements. A homogeneous array of scalars is
// stored as a typed slice attribute, anything else as a string slice.
type arrayEncoder struct {
	elems []any
}

var _ zapcore.ArrayEncoder = (*arrayEncoder)(nil)

func (a *arrayEncoder) attribute(key string) attribute.KeyValue {
	if len(a.elems) == 0 {
		return attribute.StringSlice(key, nil)
	}
	switch a.elems[0].(type) {
	case bool:
		if vs, ok := homogeneous[bool](a.elems); ok {
			return attribute.BoolSlice(key, vs)
		}
	case int64:
		if vs, ok := homogeneous[int64](a.elems); ok {
			return attribute.Int64Slice(key, vs)
		}
	case float64:
		if vs, ok := homogeneous[float64](a.elems); ok {
			return attribute.Float64Slice(key, vs)
		}
	case string:
		if vs, ok := homogeneous[string](a.elems); ok {
			return attribute.StringSlice(key, vs)
		}
	}
	out := make([]string, len(a.elems))
	for i, v := range a.elems {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = attrconv.JSONString(v)
	}
	return attribute.StringSlice(key, out)
}

func homogeneous[T any](elems []any) ([]T, bool) {
	out := make([]T, len(elems))
	for i, v := range elems {
		t, ok := v.(T)
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

func (a *arrayEncoder) AppendBool(v bool) { a.elems = append(a.elems, v) }
func (a *arrayEncoder) AppendByteString(v []byte) { a.elems = append(a.elems, string(v)) }
func (a *arrayEncoder) AppendComplex128(v complex128) { a.elems = append(a.elems, formatComplex(v)) }
func (a *arrayEncoder) AppendComplex64(v complex64) { a.AppendComplex128(complex128(v)) }
func (a *arrayEncoder) AppendFloat64(v float64) { a.elems = append(a.elems, v) }
func (a *arrayEncoder) AppendFloat32(v float32) { a.AppendFloat64(float64(v)) }
func (a *arrayEncoder) AppendInt(v int) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendInt64(v int64) { a.elems = append(a.elems, v) }
func (a *arrayEncoder) AppendInt32(v int32) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendInt16(v int16) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendInt8(v int8) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendString(v string) { a.elems = append(a.elems, v) }
func (a *arrayEncoder) AppendUint(v uint) { a.AppendUint64(uint64(v)) }
func (a *arrayEncoder) AppendUint32(v uint32) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendUint16(v uint16) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendUint8(v uint8) { a.AppendInt64(int64(v)) }
func (a *arrayEncoder) AppendUintptr(v uintptr) { a.AppendUint64(uint64(v)) }
func (a *arrayEncoder) AppendDuration(v time.Duration) { a.elems = append(a.elems, v.String()) }
func (a *arrayEncoder) AppendTime(v time.Time) { a.elems = append(a.elems, v.Format(time.RFC3339Nano)) }

func (a *arrayEncoder) AppendUint64(v uint64) {
	if v > 1<<63-1 {
		a.elems = append(a.elems, strconv.FormatUint(v, 10))
		return
	}
	a.elems = append(a.elems, int64(v))
}

func (a *arrayEncoder) AppendArray(marshaler zapcore.ArrayMarshaler) error {
	child := &arrayEncoder{}
	err := marshaler.MarshalLogArray(child)
	a.elems = append(a.elems, child.elems)
	return err
}

func (a *arrayEncoder) AppendObject(marshaler zapcore.ObjectMarshaler) error {
	m := zapcore.NewMapObjectEncoder()
	err := marshaler.MarshalLogObject(m)
	a.elems = append(a.elems, m.Fields)
	return err
}

func (a *arrayEncoder) AppendReflected(v interface{}) error {
	a.elems = append(a.elems, v)
	return nil
}

func formatComplex(c complex128) string {
	return attrconv.JSONString([]float64{real(c), imag(c)})
}
