// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exportererror // import "github.com/otel-log-samples/logpipeline/exporter/exportererror"

import (
	"errors"
	"time"
)

type throttleRetry struct {
	err   error
	delay time.Duration
}

func (t throttleRetry) Error() string {
	return "Throttle (" + t.delay.String() + "), error: " + t.err.Error()
}

func (t throttleRetry) Unwrap() error {
	return t.err
}

// NewThrottleRetry creates a new throttle retry error: the backend asked not
// to be called again before delay has passed.
func NewThrottleRetry(err error, delay time.Duration) error {
	return throttleRetry{
		err:   err,
		delay: delay,
	}
}

// ThrottleDelay returns the delay requested by a throttle error in err's chain.
func ThrottleDelay(err error) (time.Duration, bool) {
	var t throttleRetry
	if errors.As(err, &t) {
		return t.delay, true
	}
	return 0, false
}
