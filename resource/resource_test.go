// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestNewWithAttributesLastWins(t *testing.T) {
	d := NewWithAttributes("", attribute.String("a", "1"), attribute.String("a", "2"), attribute.Int("b", 3))
	assert.Equal(t, 2, d.Len())
	v, ok := d.Get("a")
	require.True(t, ok)
	assert.Equal(t, "2", v.AsString())
}

func TestNewWithAttributesDropsInvalid(t *testing.T) {
	d := NewWithAttributes("", attribute.KeyValue{Key: "empty"}, attribute.String("", "x"), attribute.Bool("ok", true))
	assert.Equal(t, []attribute.KeyValue{attribute.Bool("ok", true)}, d.Attributes())
}

func TestAttributesReturnsCopy(t *testing.T) {
	d := NewWithAttributes("", attribute.String("a", "1"))
	attrs := d.Attributes()
	attrs[0] = attribute.String("a", "changed")
	v, _ := d.Get("a")
	assert.Equal(t, "1", v.AsString())
}

func TestMerge(t *testing.T) {
	base := NewWithAttributes("base", attribute.String("a", "1"), attribute.String("b", "1"))
	other := NewWithAttributes("", attribute.String("b", "2"), attribute.String("c", "2"))

	merged := base.Merge(other)
	assert.NotSame(t, base, merged)
	assert.Equal(t, "base", merged.SchemaURL())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("a", "1"),
		attribute.String("b", "2"),
		attribute.String("c", "2"),
	}, merged.Attributes())

	// inputs untouched
	v, _ := base.Get("b")
	assert.Equal(t, "1", v.AsString())

	assert.Same(t, base, base.Merge(nil))
	assert.Same(t, base, base.Merge(Empty()))
	assert.Same(t, other, Empty().Merge(other))
}

func TestEquivalent(t *testing.T) {
	a := NewWithAttributes("", attribute.String("k", "v"), attribute.Int("n", 1))
	b := NewWithAttributes("", attribute.Int("n", 1), attribute.String("k", "v"))
	c := NewWithAttributes("", attribute.String("k", "other"))
	assert.Equal(t, a.Equivalent(), b.Equivalent())
	assert.NotEqual(t, a.Equivalent(), c.Equivalent())
	assert.Equal(t, Empty().Equivalent(), NewWithAttributes("").Equivalent())
}

func TestNilDescriptor(t *testing.T) {
	var d *Descriptor
	assert.Equal(t, 0, d.Len())
	assert.Nil(t, d.Attributes())
	assert.Empty(t, d.SchemaURL())
	_, ok := d.Get("x")
	assert.False(t, ok)
	assert.Equal(t, Empty().Equivalent(), d.Equivalent())
}

func TestSDK(t *testing.T) {
	d := NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("svc"))
	res := d.SDK()
	assert.Equal(t, semconv.SchemaURL, res.SchemaURL())
	assert.Equal(t, d.Attributes(), res.Attributes())
	assert.Equal(t, "service.name=svc", d.String())
}

type detectorFunc func(context.Context) (*sdkresource.Resource, error)

func (f detectorFunc) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	return f(ctx)
}

func stringDetector(key attribute.Key, value string) Detector {
	return sdkresource.StringDetector("", key, func() (string, error) { return value, nil })
}

func clearEnv(t *testing.T) {
	t.Setenv(EnvResourceAttributes, "")
	t.Setenv(EnvServiceName, "")
}

func TestNewPrecedence(t *testing.T) {
	t.Setenv(EnvResourceAttributes, "service.name=from-attrs,deployment.environment=dev,team=a%20b")
	t.Setenv(EnvServiceName, "from-env")

	d, err := New(context.Background(),
		WithDetectors(
			stringDetector(semconv.ServiceNameKey, "detected"),
			stringDetector("deployment.environment", "detected"),
			stringDetector("detected.only", "yes"),
		),
		WithAttributes(attribute.String("deployment.environment", "explicit")),
	)
	require.NoError(t, err)

	assert.Equal(t, "from-env", d.ServiceName())
	v, _ := d.Get("deployment.environment")
	assert.Equal(t, "explicit", v.AsString())
	v, _ = d.Get("detected.only")
	assert.Equal(t, "yes", v.AsString())
	v, _ = d.Get("team")
	assert.Equal(t, "a b", v.AsString())
}

func TestNewWithoutEnv(t *testing.T) {
	t.Setenv(EnvServiceName, "from-env")
	d, err := New(context.Background(), WithDetectors(), WithoutEnv())
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
	assert.Empty(t, d.SchemaURL())
}

func TestNewExplicitServiceAttributes(t *testing.T) {
	d, err := New(context.Background(),
		WithDetectors(),
		WithoutEnv(),
		WithServiceName("otel-log-example"),
		WithServiceVersion("1.0.0"),
		WithServiceNamespace("example.com"),
		WithSchemaURL("https://example.com/schema"),
	)
	require.NoError(t, err)
	assert.Equal(t, []attribute.KeyValue{
		semconv.ServiceName("otel-log-example"),
		semconv.ServiceNamespace("example.com"),
		semconv.ServiceVersion("1.0.0"),
	}, d.Attributes())
	assert.Equal(t, "https://example.com/schema", d.SchemaURL())
}

func TestNewPartialResource(t *testing.T) {
	errDetect := errors.New("no metadata endpoint")
	failing := detectorFunc(func(context.Context) (*sdkresource.Resource, error) {
		return sdkresource.NewSchemaless(attribute.String("cloud.provider", "unknown")), fmt.Errorf("%w: %w", ErrPartialResource, errDetect)
	})
	d, err := New(context.Background(),
		WithDetectors(failing, nil, stringDetector("ok", "1")),
		WithoutEnv(),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialResource)
	assert.ErrorIs(t, err, errDetect)
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Len())
}

func TestNewFailingDetectorIsPartial(t *testing.T) {
	broken := detectorFunc(func(context.Context) (*sdkresource.Resource, error) {
		return nil, errors.New("unreachable")
	})
	d, err := New(context.Background(), WithDetectors(broken, stringDetector("ok", "1")), WithoutEnv())
	assert.ErrorIs(t, err, ErrPartialResource)
	assert.ErrorContains(t, err, "unreachable")
	v, ok := d.Get("ok")
	require.True(t, ok)
	assert.Equal(t, "1", v.AsString())
}

func TestNewInvalidEnvIsPartial(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvResourceAttributes, "good=1,bad")
	d, err := New(context.Background(), WithDetectors())
	assert.ErrorIs(t, err, ErrPartialResource)
	v, ok := d.Get("good")
	require.True(t, ok)
	assert.Equal(t, "1", v.AsString())
}

func TestDefaultDetectors(t *testing.T) {
	clearEnv(t)
	d, _ := New(context.Background())
	for _, key := range []attribute.Key{
		semconv.TelemetrySDKNameKey,
		semconv.TelemetrySDKLanguageKey,
		semconv.TelemetrySDKVersionKey,
		semconv.HostArchKey,
		semconv.OSTypeKey,
		semconv.ProcessPIDKey,
		semconv.ProcessRuntimeNameKey,
		semconv.ServiceInstanceIDKey,
	} {
		_, ok := d.Get(key)
		assert.True(t, ok, "missing %s", key)
	}
	_, ok := d.Get(semconv.ProcessCommandArgsKey)
	assert.False(t, ok)
	assert.NotEmpty(t, d.SchemaURL())
}

func TestTelemetrySDKDetector(t *testing.T) {
	res, err := TelemetrySDK().Detect(context.Background())
	require.NoError(t, err)
	v, ok := res.Set().Value(semconv.TelemetrySDKLanguageKey)
	require.True(t, ok)
	assert.Equal(t, "go", v.AsString())
}

func TestInstanceIDIsRandom(t *testing.T) {
	a, err := InstanceID().Detect(context.Background())
	require.NoError(t, err)
	b, err := InstanceID().Detect(context.Background())
	require.NoError(t, err)
	va, _ := a.Set().Value(semconv.ServiceInstanceIDKey)
	vb, _ := b.Set().Value(semconv.ServiceInstanceIDKey)
	assert.NotEmpty(t, va.AsString())
	assert.NotEqual(t, va.AsString(), vb.AsString())
}
