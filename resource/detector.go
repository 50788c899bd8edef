// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package resource // import "github.com/otel-log-samples/logpipeline/resource"

import (
	"context"
	"runtime"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/host"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Detector discovers attributes about the running process or its host.
type Detector = sdkresource.Detector

// detectorGroup runs SDK resource options as one Detector. A failing option
// does not discard what the others found.
type detectorGroup []sdkresource.Option

func (g detectorGroup) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	res, err := sdkresource.New(ctx, g...)
	return res, partial(err)
}

// TelemetrySDK reports the telemetry.sdk.* attributes.
func TelemetrySDK() Detector {
	return detectorGroup{sdkresource.WithTelemetrySDK()}
}

// Host reports host and operating system attributes.
func Host() Detector {
	return detectorGroup{
		sdkresource.WithHost(),
		sdkresource.WithHostID(),
		sdkresource.WithOS(),
		sdkresource.WithDetectors(platformDetector{}),
	}
}

// platformDetector fills in host.arch, os.name and os.version, which the SDK
// detectors leave out.
type platformDetector struct{}

func (platformDetector) Detect(ctx context.Context) (*sdkresource.Resource, error) {
	kvs := []attribute.KeyValue{semconv.HostArchKey.String(runtime.GOARCH)}
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return sdkresource.NewSchemaless(kvs...), partial(err)
	}
	if info.Platform != "" {
		kvs = append(kvs, semconv.OSName(info.Platform))
	}
	if info.PlatformVersion != "" {
		kvs = append(kvs, semconv.OSVersion(info.PlatformVersion))
	}
	return sdkresource.NewSchemaless(kvs...), nil
}

// Process reports attributes of the current process and the Go runtime.
// Command line arguments are left out.
func Process() Detector {
	return detectorGroup{
		sdkresource.WithProcessPID(),
		sdkresource.WithProcessExecutableName(),
		sdkresource.WithProcessExecutablePath(),
		sdkresource.WithProcessOwner(),
		sdkresource.WithProcessRuntimeName(),
		sdkresource.WithProcessRuntimeVersion(),
		sdkresource.WithProcessRuntimeDescription(),
	}
}

// InstanceID reports a random service.instance.id, generated on every call.
func InstanceID() Detector {
	return sdkresource.StringDetector("", semconv.ServiceInstanceIDKey, func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	})
}

// DefaultDetectors returns the detectors New runs unless WithDetectors is used.
func DefaultDetectors() []Detector {
	return []Detector{TelemetrySDK(), Host(), Process(), InstanceID()}
}
