// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package componenttest provides test helpers for components: no-op telemetry
// and a recording telemetry whose metrics, spans and logs can be asserted on.
package componenttest // import "github.com/otel-log-samples/logpipeline/component/componenttest"
