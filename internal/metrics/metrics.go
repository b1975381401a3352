// Package metrics exposes Prometheus instruments for dashboard activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a registry so tests and multiple servers do not collide on the default one.
type Recorder struct {
	registry      *prometheus.Registry
	views         *prometheus.CounterVec
	viewDuration  prometheus.Histogram
	viewRows      prometheus.Histogram
	lastAnomalies prometheus.Gauge
	exports       prometheus.Counter
}

// NewRecorder registers the dashboard instruments on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcadash",
			Name:      "insight_views_total",
			Help:      "Filtered PCA insight views computed, by surface.",
		}, []string{"surface"}),
		viewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pcadash",
			Name:      "insight_view_duration_seconds",
			Help:      "Time spent filtering, flagging and aggregating a view.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		viewRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pcadash",
			Name:      "insight_view_rows",
			Help:      "Rows surviving the filters of a view.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		lastAnomalies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcadash",
			Name:      "insight_last_view_anomalies",
			Help:      "Anomalous parts in the most recent view.",
		}),
		exports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcadash",
			Name:      "insight_exports_total",
			Help:      "Workbook exports of a filtered view.",
		}),
	}
	reg.MustRegister(r.views, r.viewDuration, r.viewRows, r.lastAnomalies, r.exports)
	return r
}

// ObserveView records one computed view.
func (r *Recorder) ObserveView(surface string, rows, anomalies int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.views.WithLabelValues(surface).Inc()
	r.viewDuration.Observe(elapsed.Seconds())
	r.viewRows.Observe(float64(rows))
	r.lastAnomalies.Set(float64(anomalies))
}

// ObserveExport records one workbook export.
func (r *Recorder) ObserveExport() {
	if r == nil {
		return
	}
	r.exports.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
