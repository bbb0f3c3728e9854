// Package metrics records operation counts, stage latencies, errors and
// per-kind edge counts for ownerchain.
//
// Components depend on the Collector interface. NewCollector returns a
// Prometheus-backed collector with its own registry; NoopCollector is the
// default when metrics are disabled.
package metrics

import "context"

// Collector is the interface for metrics collection.
type Collector interface {
	RecordOperation(ctx context.Context, operation string, status string, durationMs int64)
	RecordStage(ctx context.Context, operation string, stage string, durationMs int64)
	RecordError(ctx context.Context, operation string, errorType string)
	SetStorageCount(ctx context.Context, storageType string, count int64)
}

// Operation status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
