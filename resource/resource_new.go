// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package resource // import "github.com/otel-log-samples/logpipeline/resource"

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// EnvResourceAttributes holds comma separated key=value pairs.
	EnvResourceAttributes = "OTEL_RESOURCE_ATTRIBUTES"
	// EnvServiceName overrides service.name from EnvResourceAttributes.
	EnvServiceName = "OTEL_SERVICE_NAME"
)

// ErrPartialResource is wrapped by the error New returns when some detectors
// failed. The returned Descriptor is still usable.
var ErrPartialResource = sdkresource.ErrPartialResource

type config struct {
	detectors []Detector
	noEnv     bool
	explicit  []attribute.KeyValue
	schemaURL string
}

// Option configures New.
type Option func(*config)

// WithAttributes adds explicit attributes. They take precedence over the
// environment and over detected attributes.
func WithAttributes(kvs ...attribute.KeyValue) Option {
	return func(c *config) {
		c.explicit = append(c.explicit, kvs...)
	}
}

// WithServiceName sets service.name.
func WithServiceName(name string) Option {
	return WithAttributes(semconv.ServiceName(name))
}

// WithServiceVersion sets service.version.
func WithServiceVersion(version string) Option {
	return WithAttributes(semconv.ServiceVersion(version))
}

// WithServiceNamespace sets service.namespace.
func WithServiceNamespace(namespace string) Option {
	return WithAttributes(semconv.ServiceNamespace(namespace))
}

// WithDetectors replaces the default detectors.
func WithDetectors(detectors ...Detector) Option {
	return func(c *config) {
		c.detectors = detectors
	}
}

// WithSchemaURL overrides the schema URL reported by the detectors.
func WithSchemaURL(url string) Option {
	return func(c *config) {
		c.schemaURL = url
	}
}

// WithoutEnv ignores OTEL_RESOURCE_ATTRIBUTES and OTEL_SERVICE_NAME.
func WithoutEnv() Option {
	return func(c *config) {
		c.noEnv = true
	}
}

// New builds the process Descriptor with the SDK resource detection.
// Attributes are merged in increasing priority: detected, environment,
// explicit.
//
// If a detector or the environment fails, New still returns a Descriptor with
// everything it could gather and an error wrapping ErrPartialResource.
func New(ctx context.Context, opts ...Option) (*Descriptor, error) {
	cfg := config{detectors: DefaultDetectors()}
	for _, opt := range opts {
		opt(&cfg)
	}

	sdkOpts := []sdkresource.Option{sdkresource.WithDetectors(cfg.detectors...)}
	if !cfg.noEnv {
		sdkOpts = append(sdkOpts, sdkresource.WithFromEnv())
	}
	sdkOpts = append(sdkOpts, sdkresource.WithAttributes(cfg.explicit...))

	res, err := sdkresource.New(ctx, sdkOpts...)
	schemaURL := cfg.schemaURL
	if schemaURL == "" {
		schemaURL = res.SchemaURL()
	}
	desc := NewWithAttributes(schemaURL, res.Attributes()...)
	return desc, partial(err)
}

// partial marks any detection error as partial: sdkresource.New keeps the
// attributes of the detectors that succeeded.
func partial(err error) error {
	if err == nil || errors.Is(err, ErrPartialResource) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPartialResource, err)
}

// ServiceName returns the service.name attribute, or "" if absent.
func (d *Descriptor) ServiceName() string {
	v, ok := d.Get(semconv.ServiceNameKey)
	if !ok {
		return ""
	}
	return v.AsString()
}
