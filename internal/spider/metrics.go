package spider

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the traversal engine. All methods
// are nil-safe so tests can run without a registry.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	ItemsTotal        prometheus.Counter
	DuplicatesDropped prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spider_requests_total",
			Help: "Total fetch requests processed by the engine.",
		},
		[]string{"spider"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spider_fetch_duration_seconds",
			Help:    "Fetch latency per dispatched request.",
			Buckets: prometheus.DefBuckets,
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spider_items_total",
			Help: "Total items handed to the item pipeline.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spider_duplicates_dropped_total",
			Help: "Total requests dropped by the deduplication middleware.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spider_errors_total",
			Help: "Total engine errors by stage.",
		},
		[]string{"stage"},
	)

	registry.MustRegister(requests, fetchDuration, items, duplicates, errorsTotal)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		FetchDuration:     fetchDuration,
		ItemsTotal:        items,
		DuplicatesDropped: duplicates,
		ErrorsTotal:       errorsTotal,
	}
}

// IncRequest counts one dispatched request for a spider
func (m *Metrics) IncRequest(spider string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(spider).Inc()
}

// ObserveFetch records one fetch duration
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncItems counts one item sent to the pipeline
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsTotal.Inc()
}

// IncDuplicates counts one request dropped as a duplicate
func (m *Metrics) IncDuplicates() {
	if m == nil {
		return
	}
	m.DuplicatesDropped.Inc()
}

// IncError counts one error for a stage label
func (m *Metrics) IncError(stage string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(stage).Inc()
}
