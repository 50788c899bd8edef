// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package exportertest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otel-log-samples/logpipeline/record"
)

func TestLogsSink(t *testing.T) {
	sink := new(LogsSink)
	require.NoError(t, sink.Start(context.Background()))
	assert.True(t, sink.Started())

	batch := []record.Record{
		record.New(nil, record.Scope{}, record.Builder{Body: "a"}),
		record.New(nil, record.Scope{}, record.Builder{Body: "b"}),
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, sink.Export(context.Background(), batch))
	}
	assert.Equal(t, []int{2, 2, 2}, sink.BatchSizes())
	assert.Equal(t, 6, sink.RecordCount())
	assert.Equal(t, "a", sink.AllRecords()[0].Body())
	assert.Equal(t, 3, sink.ExportCalls())

	sink.Reset()
	assert.Empty(t, sink.AllBatches())
	assert.Equal(t, 0, sink.ExportCalls())

	require.NoError(t, sink.Shutdown(context.Background()))
	assert.Equal(t, 1, sink.Shutdowns())
}

func TestLogsSinkExportFunc(t *testing.T) {
	errBoom := errors.New("boom")
	sink := &LogsSink{ExportFunc: func(context.Context, []record.Record) error { return errBoom }}
	err := sink.Export(context.Background(), []record.Record{record.New(nil, record.Scope{}, record.Builder{})})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, sink.ExportCalls())
	assert.Equal(t, 0, sink.RecordCount())
}

func TestNop(t *testing.T) {
	exp := NewNop()
	require.NoError(t, exp.Start(context.Background()))
	require.NoError(t, exp.Export(context.Background(), nil))
	require.NoError(t, exp.Shutdown(context.Background()))
}
