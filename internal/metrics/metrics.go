package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry               *prometheus.Registry
	httpRequests           *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	upstreamCalls          *prometheus.CounterVec
	upstreamCallDuration   *prometheus.HistogramVec
	enrichmentOutcomeTotal *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP, upstream and enrichment metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decofer",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by decofer-core",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "decofer",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by decofer-core",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	upstreamCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decofer",
		Name:      "upstream_calls_total",
		Help:      "Count of calls made to upstream data providers",
	}, []string{"upstream", "outcome"})

	upstreamCallDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "decofer",
		Name:      "upstream_call_duration_seconds",
		Help:      "Duration of calls made to upstream data providers",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"upstream", "outcome"})

	enrichmentOutcomeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "decofer",
		Name:      "enrichment_total",
		Help:      "Outcome of communication config enrichment with warehouse snapshot dates",
	}, []string{"outcome"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		upstreamCalls,
		upstreamCallDuration,
		enrichmentOutcomeTotal,
	)

	return &Metrics{
		registry:               registry,
		httpRequests:           httpRequests,
		httpRequestDuration:    httpRequestDuration,
		upstreamCalls:          upstreamCalls,
		upstreamCallDuration:   upstreamCallDuration,
		enrichmentOutcomeTotal: enrichmentOutcomeTotal,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveUpstreamCall records one call to an upstream provider.
// Outcome is a short label such as "ok", "not_found" or "error".
func (m *Metrics) ObserveUpstreamCall(upstream, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"upstream": upstream,
		"outcome":  outcome,
	}
	m.upstreamCalls.With(labels).Inc()
	m.upstreamCallDuration.With(labels).Observe(duration.Seconds())
}

// IncEnrichment increments the enrichment outcome counter.
func (m *Metrics) IncEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.enrichmentOutcomeTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
