// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exporterhelper // import "github.com/otel-log-samples/logpipeline/exporter/exporterhelper"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otel-log-samples/logpipeline/config/configretry"
	"github.com/otel-log-samples/logpipeline/exporter/exportererror"
	"github.com/otel-log-samples/logpipeline/record"
)

var (
	// ErrRetriesExhausted is wrapped by the error returned once the attempt
	// budget or the maximum elapsed time is used up.
	ErrRetriesExhausted = errors.New("no more retries left")

	errRetryInterrupted = errors.New("interrupted due to shutdown")
)

type retrySender struct {
	cfg      configretry.BackOffConfig
	next     requestSender
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newRetrySender(cfg configretry.BackOffConfig, logger *zap.Logger, next requestSender) *retrySender {
	return &retrySender{
		cfg:    cfg,
		next:   next,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// shutdown interrupts every pending backoff wait.
func (rs *retrySender) shutdown() {
	rs.stopOnce.Do(func() { close(rs.stopCh) })
}

// send implements the requestSender interface
func (rs *retrySender) send(ctx context.Context, records []record.Record) error {
	if !rs.cfg.Enabled {
		return rs.next.send(ctx, records)
	}

	expBackoff := rs.cfg.NewExponentialBackOff()
	for attempt := 1; ; attempt++ {
		err := rs.next.send(ctx, records)
		if err == nil {
			return nil
		}

		// Immediately drop data on permanent errors.
		if exportererror.IsPermanent(err) {
			return err
		}

		if rs.cfg.MaxAttempts > 0 && attempt >= rs.cfg.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
		}

		backoffDelay := expBackoff.NextBackOff()
		if backoffDelay == backoff.Stop {
			return fmt.Errorf("%w, max elapsed time expired: %w", ErrRetriesExhausted, err)
		}

		if throttleDelay, isThrottle := exportererror.ThrottleDelay(err); isThrottle {
			backoffDelay = max(backoffDelay, throttleDelay)
		}

		if deadline, has := ctx.Deadline(); has && time.Until(deadline) < backoffDelay {
			// The next attempt would start after the deadline.
			return fmt.Errorf("%w, request will be cancelled before next retry: %w", ErrRetriesExhausted, err)
		}

		rs.logger.Debug(
			"Exporting failed. Will retry the request after interval.",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("interval", backoffDelay.String()),
		)

		// back-off, but get interrupted when shutting down or request is cancelled or timed out.
		timer := time.NewTimer(backoffDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("request is cancelled or timed out: %w", multierr.Combine(ctx.Err(), err))
		case <-rs.stopCh:
			timer.Stop()
			return fmt.Errorf("%w: %w", errRetryInterrupted, err)
		case <-timer.C:
		}
	}
}
