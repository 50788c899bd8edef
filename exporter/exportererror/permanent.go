// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package exportererror classifies export failures for the retry logic.
package exportererror // import "github.com/otel-log-samples/logpipeline/exporter/exportererror"

import (
	"errors"
)

// Permanent is an error that will always be returned if its source
// receives the same inputs.
type Permanent struct {
	err error
}

// NewPermanent wraps an error to indicate that it is a permanent error, i.e. an
// error that will be always returned if its source receives the same inputs.
func NewPermanent(err error) error {
	return Permanent{err: err}
}

func (p Permanent) Error() string {
	return "Permanent error: " + p.err.Error()
}

// Unwrap returns the wrapped error for functions Is and As in standard package errors.
func (p Permanent) Unwrap() error {
	return p.err
}

// IsPermanent checks if an error was wrapped with the NewPermanent function, which
// is used to indicate that a given error will always be returned in the case
// that its sources receives the same input.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return errors.As(err, &Permanent{})
}
