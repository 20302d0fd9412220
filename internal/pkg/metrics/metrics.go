// Package metrics exposes the Prometheus collectors for ingestion and the
// upstream video API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perspectize"

// Metrics holds the application collectors. Each instance owns its registry
// so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	ingestOutcomes   *prometheus.CounterVec
	ingestBatchSize  prometheus.Histogram
	ingestDuration   prometheus.Histogram
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ingestOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "outcomes_total",
			Help:      "Per-URL ingestion outcomes by status.",
		}, []string{"status"}),
		ingestBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_size",
			Help:      "Number of URLs per ingestion batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		ingestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of an ingestion batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "youtube",
			Name:      "requests_total",
			Help:      "Video metadata lookups by result.",
		}, []string{"result"}),
		upstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "youtube",
			Name:      "request_duration_seconds",
			Help:      "Latency of video metadata lookups that reached the network.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups by area and result.",
		}, []string{"area", "result"}),
	}
}

// RecordIngestOutcome counts one per-URL outcome
func (m *Metrics) RecordIngestOutcome(status string) {
	if m == nil {
		return
	}
	m.ingestOutcomes.WithLabelValues(status).Inc()
}

// ObserveBatch records a finished ingestion batch
func (m *Metrics) ObserveBatch(size int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ingestBatchSize.Observe(float64(size))
	m.ingestDuration.Observe(elapsed.Seconds())
}

// RecordUpstream counts one upstream lookup. Latency is only observed for
// lookups that hit the network.
func (m *Metrics) RecordUpstream(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(result).Inc()
	if elapsed > 0 {
		m.upstreamLatency.Observe(elapsed.Seconds())
	}
}

// RecordCacheLookup counts a cache hit or miss
func (m *Metrics) RecordCacheLookup(area string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(area, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
