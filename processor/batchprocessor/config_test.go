// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package batchprocessor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, Config{
		ScheduleDelay:      time.Second,
		ExportTimeout:      30 * time.Second,
		MaxQueueSize:       2048,
		MaxExportBatchSize: 512,
		OverflowPolicy:     DropNewest,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero delay", func(c *Config) { c.ScheduleDelay = 0 }, "'schedule_delay' must be positive"},
		{"negative timeout", func(c *Config) { c.ExportTimeout = -time.Second }, "'export_timeout' must be positive"},
		{"zero queue", func(c *Config) { c.MaxQueueSize = 0 }, "'max_queue_size' must be positive"},
		{"zero batch", func(c *Config) { c.MaxExportBatchSize = 0 }, "'max_export_batch_size' must be positive"},
		{"batch over queue", func(c *Config) { c.MaxExportBatchSize = 4096 }, "less than or equal to 'max_queue_size'"},
		{"unknown policy", func(c *Config) { c.OverflowPolicy = "block" }, "unknown 'overflow_policy'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestOverflowPolicyUnmarshalText(t *testing.T) {
	var p OverflowPolicy
	require.NoError(t, p.UnmarshalText([]byte("DROP_OLDEST")))
	assert.Equal(t, DropOldest, p)
	require.Error(t, p.UnmarshalText([]byte("block")))
}
