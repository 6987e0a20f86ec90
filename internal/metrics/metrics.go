// Package metrics exposes Prometheus collectors for the detection pipeline.
// All metrics use the "chainguard" namespace.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Alias1177/ChainGuard/models"
)

const namespace = "chainguard"

// Metrics holds the pipeline collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	// BatchesTotal counts detection passes by outcome.
	// outcome: success | failed
	BatchesTotal *prometheus.CounterVec

	// VectorsTotal counts feature vectors scored.
	VectorsTotal prometheus.Counter

	// AnomaliesTotal counts flagged vectors by attack type.
	AnomaliesTotal *prometheus.CounterVec

	// DetectionDuration tracks the latency of one detection pass.
	DetectionDuration prometheus.Histogram

	// Threshold is the distance threshold of the trained model.
	Threshold prometheus.Gauge

	// AlertsTotal counts alerts by outcome.
	// outcome: sent | skipped | failed
	AlertsTotal *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "detection",
				Name:      "batches_total",
				Help:      "Total number of detection passes by outcome.",
			},
			[]string{"outcome"},
		),
		VectorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "detection",
				Name:      "vectors_total",
				Help:      "Total number of feature vectors scored.",
			},
		),
		AnomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "detection",
				Name:      "anomalies_total",
				Help:      "Total number of anomalies by attack type.",
			},
			[]string{"attack_type"},
		),
		DetectionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "detection",
				Name:      "duration_seconds",
				Help:      "Duration of one detection pass in seconds.",
				// 1ms → 2ms → ... → ~4s
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
			},
		),
		Threshold: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "threshold",
				Help:      "Distance threshold of the trained outlier model.",
			},
		),
		AlertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "alerts",
				Name:      "total",
				Help:      "Total number of alert attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// ObserveBatch records a successful detection pass
func (m *Metrics) ObserveBatch(summary models.BatchSummary, elapsed time.Duration) {
	m.BatchesTotal.WithLabelValues("success").Inc()
	m.VectorsTotal.Add(float64(summary.Processed))
	for attack, count := range summary.ByAttack {
		m.AnomaliesTotal.WithLabelValues(string(attack)).Add(float64(count))
	}
	m.DetectionDuration.Observe(elapsed.Seconds())
}

// BatchFailed records a detection pass that did not complete
func (m *Metrics) BatchFailed() {
	m.BatchesTotal.WithLabelValues("failed").Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
