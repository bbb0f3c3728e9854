package metrics

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Collector = (*MetricsCollector)(nil)
	_ Collector = (*NoopCollector)(nil)
)

func TestMetricsCollector_RecordOperation(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordOperation(ctx, "update", StatusSuccess, 3)
	collector.RecordOperation(ctx, "update", StatusSuccess, 4)
	collector.RecordOperation(ctx, "update", StatusError, 1)
	collector.RecordOperation(ctx, "get", StatusSuccess, 1)

	assert.Equal(t, 3, testutil.CollectAndCount(collector.operationsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(collector.operationsTotal.WithLabelValues("update", StatusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.operationsTotal.WithLabelValues("update", StatusError)))
}

func TestMetricsCollector_RecordStage(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordStage(ctx, "get", "resolve", 2)
	collector.RecordStage(ctx, "get", "decode", 1)
	collector.RecordStage(ctx, "get", "resolve", 5)

	assert.Equal(t, 2, testutil.CollectAndCount(collector.operationDuration))
}

func TestMetricsCollector_RecordError(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.RecordError(ctx, "get", "CHAIN_BROKEN")
	collector.RecordError(ctx, "get", "CHAIN_BROKEN")
	collector.RecordError(ctx, "update", "UNAUTHORIZED")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.errorsTotal.WithLabelValues("get", "CHAIN_BROKEN")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.errorsTotal.WithLabelValues("update", "UNAUTHORIZED")))
}

func TestMetricsCollector_SetStorageCount(t *testing.T) {
	collector := NewCollector()
	ctx := context.Background()

	collector.SetStorageCount(ctx, "login_activity", 10)
	collector.SetStorageCount(ctx, "login_activity", 4)

	assert.Equal(t, float64(4), testutil.ToFloat64(collector.storageCount.WithLabelValues("login_activity")))
}

func TestWriteText(t *testing.T) {
	collector := NewCollector()
	collector.RecordOperation(context.Background(), "export", StatusSuccess, 12)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, collector.Registry()))
	assert.Contains(t, buf.String(), `ownerchain_operations_total{operation="export",status="success"} 1`)
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.RecordOperation(ctx, "get", StatusSuccess, 1)
		c.RecordStage(ctx, "get", "resolve", 1)
		c.RecordError(ctx, "get", "NOT_FOUND")
		c.SetStorageCount(ctx, "profile", 1)
	})
}
