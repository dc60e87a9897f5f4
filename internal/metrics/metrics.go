// Package metrics exposes import counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/protesto/internal/core"
)

// Metrics implements core.Metrics.
type Metrics struct {
	ImportsTotal    *prometheus.CounterVec
	ImportsRejected *prometheus.CounterVec
	RecordsTotal    *prometheus.CounterVec
	ImportDuration  prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers all import metrics with reg. A nil reg uses a fresh
// registry so repeated calls in tests do not collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "protest_imports_total",
			Help: "Completed imports by final status",
		}, []string{"status"}),
		ImportsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "protest_imports_rejected_total",
			Help: "Imports rejected before an audit row was written",
		}, []string{"reason"}),
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "protest_import_records_total",
			Help: "Logical records by outcome",
		}, []string{"outcome"}),
		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "protest_import_duration_seconds",
			Help:    "Wall time of completed imports",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}),
		gatherer: reg,
	}
}

// ImportFinished records a completed import.
func (m *Metrics) ImportFinished(status core.ImportStatus, elapsed time.Duration) {
	m.ImportsTotal.WithLabelValues(string(status)).Inc()
	m.ImportDuration.Observe(elapsed.Seconds())
}

// ImportRejected records a file refused before auditing.
func (m *Metrics) ImportRejected(reason string) {
	m.ImportsRejected.WithLabelValues(reason).Inc()
}

// RecordsCounted adds n records under outcome. Zero counts are skipped.
func (m *Metrics) RecordsCounted(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(outcome).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
