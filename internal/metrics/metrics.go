package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the discovery engine.
type Metrics struct {
	Registry              *prometheus.Registry
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       prometheus.Histogram
	ListingsTotal         prometheus.Counter
	RetriesTotal          prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
	StrategyTerminalTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_requests_total",
			Help: "Total HTTP requests issued by the discovery engine.",
		},
		[]string{"storefront"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_request_duration_seconds",
			Help:    "HTTP request latency for catalog page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	listings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_listings_total",
			Help: "Total number of novel listings discovered.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "discovery_retries_total",
			Help: "Total number of fetch retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_errors_total",
			Help: "Total number of discovery errors by type.",
		},
		[]string{"error_type"},
	)
	strategyTerminal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_strategy_terminal_total",
			Help: "Strategies reaching a terminal state, by state.",
		},
		[]string{"state"},
	)

	registry.MustRegister(requests, requestDuration, listings, retries, errorsTotal, strategyTerminal)

	return &Metrics{
		Registry:              registry,
		RequestsTotal:         requests,
		RequestDuration:       requestDuration,
		ListingsTotal:         listings,
		RetriesTotal:          retries,
		ErrorsTotal:           errorsTotal,
		StrategyTerminalTotal: strategyTerminal,
	}
}

// IncRequest increments the requests total counter for a storefront.
func (m *Metrics) IncRequest(storefront string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(storefront).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncListings adds n to the novel listings counter.
func (m *Metrics) IncListings(n int) {
	if m == nil {
		return
	}
	m.ListingsTotal.Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncStrategyTerminal counts a strategy reaching EXHAUSTED or FAILED.
func (m *Metrics) IncStrategyTerminal(state string) {
	if m == nil {
		return
	}
	m.StrategyTerminalTotal.WithLabelValues(state).Inc()
}
