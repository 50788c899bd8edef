// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package componenttest // import "github.com/otel-log-samples/logpipeline/component/componenttest"

import (
	"fmt"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// CheckIntSum verifies that the sum metric with the given name has a single
// data point equal to expected.
func (tt *Telemetry) CheckIntSum(name string, expected int64) error {
	m, err := tt.GetMetric(name)
	if err != nil {
		return err
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return fmt.Errorf("unknown metric type: %T", m.Data)
	}
	return checkValue(name, sum.DataPoints, expected)
}

// CheckIntGauge verifies that the gauge metric with the given name has a
// single data point equal to expected.
func (tt *Telemetry) CheckIntGauge(name string, expected int64) error {
	m, err := tt.GetMetric(name)
	if err != nil {
		return err
	}
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	if !ok {
		return fmt.Errorf("unknown metric type: %T", m.Data)
	}
	return checkValue(name, gauge.DataPoints, expected)
}

func checkValue(name string, dps []metricdata.DataPoint[int64], expected int64) error {
	if len(dps) != 1 {
		return fmt.Errorf("metric '%s' has %d data points, expected 1", name, len(dps))
	}
	if dps[0].Value != expected {
		return fmt.Errorf("values for metric '%s' did not match, expected '%d' got '%d'", name, expected, dps[0].Value)
	}
	return nil
}
