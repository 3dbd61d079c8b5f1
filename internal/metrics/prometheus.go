// Package metrics exposes prometheus instrumentation for the repository layer.
package metrics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the repository layer.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ConflictsTotal    *prometheus.CounterVec
	DocumentsReturned *prometheus.HistogramVec
}

// NewMetrics creates and registers all repository metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentbook",
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Total number of repository operations",
		}, []string{"collection", "operation", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentbook",
			Subsystem: "repository",
			Name:      "operation_duration_seconds",
			Help:      "Repository operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"collection", "operation"}),
		ConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentbook",
			Subsystem: "repository",
			Name:      "concurrency_conflicts_total",
			Help:      "Updates rejected because the expected version was stale",
		}, []string{"collection"}),
		DocumentsReturned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentbook",
			Subsystem: "repository",
			Name:      "documents_returned",
			Help:      "Number of documents returned by list queries",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"collection"}),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.ConflictsTotal, m.DocumentsReturned)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a finished repository operation.
func (m *Metrics) Observe(collection, operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(collection, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(collection, operation).Observe(time.Since(started).Seconds())
	if outcome == OutcomeConflict {
		m.ConflictsTotal.WithLabelValues(collection).Inc()
	}
}

// ObserveResult records the size of a list result.
func (m *Metrics) ObserveResult(collection string, n int) {
	if m == nil {
		return
	}
	m.DocumentsReturned.WithLabelValues(collection).Observe(float64(n))
}

// Dump renders the current metric values in the text exposition format.
func (m *Metrics) Dump() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return buf.String(), nil
}
