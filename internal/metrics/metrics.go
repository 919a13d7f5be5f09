// Package metrics defines the Prometheus collectors exported by the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "plate_calculator"

// Metrics bundles the collectors recorded by the HTTP layer.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	resultSize     *prometheus.HistogramVec
	inexactLoading prometheus.Counter
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		resultSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "result_size",
			Help:      "Number of values returned per calculation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"operation"}),
		inexactLoading: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inexact_selections_total",
			Help:      "Plate selections that could not reach the target exactly.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.resultSize,
		m.inexactLoading,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveResult records how many values a calculation produced.
func (m *Metrics) ObserveResult(operation string, size int) {
	if m == nil {
		return
	}
	m.resultSize.WithLabelValues(operation).Observe(float64(size))
}

// IncInexact counts a plate selection that left a remainder.
func (m *Metrics) IncInexact() {
	if m == nil {
		return
	}
	m.inexactLoading.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
