package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector provides Prometheus metrics collection for record operations.
type MetricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
	storageCount      *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ownerchain_operations_total",
			Help: "Total number of record operations by type and status",
		},
		[]string{"operation", "status"},
	)

	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ownerchain_operation_duration_seconds",
			Help:    "Duration of record operations by type and stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation", "stage"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ownerchain_errors_total",
			Help: "Total number of errors by operation and error code",
		},
		[]string{"operation", "error_type"},
	)

	storageCount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ownerchain_edges",
			Help: "Current number of link edges by record kind",
		},
		[]string{"kind"},
	)

	registry.MustRegister(operationsTotal)
	registry.MustRegister(operationDuration)
	registry.MustRegister(errorsTotal)
	registry.MustRegister(storageCount)

	return &MetricsCollector{
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
		errorsTotal:       errorsTotal,
		storageCount:      storageCount,
		registry:          registry,
	}
}

// RecordOperation records the completion of an operation
func (m *MetricsCollector) RecordOperation(ctx context.Context, operation string, status string, durationMs int64) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation, "total").Observe(float64(durationMs) / 1000.0)
}

// RecordStage records the duration of a specific stage within an operation
func (m *MetricsCollector) RecordStage(ctx context.Context, operation string, stage string, durationMs int64) {
	m.operationDuration.WithLabelValues(operation, stage).Observe(float64(durationMs) / 1000.0)
}

// RecordError records an error occurrence
func (m *MetricsCollector) RecordError(ctx context.Context, operation string, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetStorageCount sets the current edge count for a record kind
func (m *MetricsCollector) SetStorageCount(ctx context.Context, storageType string, count int64) {
	m.storageCount.WithLabelValues(storageType).Set(float64(count))
}

// Registry returns the Prometheus registry for exposition
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}
