// Package observability exposes structkit's Prometheus collectors. A Metrics
// value owns its registry so tests and the CLI can each hold an isolated set.
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "structkit"

// Metrics groups every collector structkit registers.
type Metrics struct {
	registry *prometheus.Registry

	blobOps      *prometheus.CounterVec
	blobDuration *prometheus.HistogramVec

	operations *prometheus.CounterVec
	opDuration *prometheus.HistogramVec

	flyweightLookups *prometheus.CounterVec
	proxyBuilds      *prometheus.CounterVec
	proxyBuildTime   *prometheus.HistogramVec
}

// New builds the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		blobOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "blob", Name: "operations_total",
			Help: "Blob store calls by driver, operation and result.",
		}, []string{"driver", "op", "result"}),
		blobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "blob", Name: "operation_seconds",
			Help:    "Blob store call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"driver", "op"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operations_total",
			Help: "Top-level operations by name and result.",
		}, []string{"operation", "result"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_seconds",
			Help:    "Top-level operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		flyweightLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "flyweight", Name: "lookups_total",
			Help: "Flyweight factory lookups by factory and outcome (hit, miss, failed).",
		}, []string{"factory", "outcome"}),
		proxyBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "proxy", Name: "constructions_total",
			Help: "Lazy proxy construction attempts by proxy and result.",
		}, []string{"proxy", "result"}),
		proxyBuildTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "proxy", Name: "construction_seconds",
			Help:    "Time spent constructing proxied subjects.",
			Buckets: prometheus.DefBuckets,
		}, []string{"proxy"}),
	}
	m.registry.MustRegister(m.blobOps, m.blobDuration, m.operations, m.opDuration,
		m.flyweightLookups, m.proxyBuilds, m.proxyBuildTime)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Gatherer exposes the registry for exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

func result(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Observe records a top-level operation outcome.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	m.operations.WithLabelValues(operation, result(success)).Inc()
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveBlob records a single blob store call.
func (m *Metrics) ObserveBlob(driver, op string, success bool, duration time.Duration) {
	m.blobOps.WithLabelValues(driver, op, result(success)).Inc()
	m.blobDuration.WithLabelValues(driver, op).Observe(duration.Seconds())
}
