// Package metrics exports Prometheus metrics for the ingestion pipeline,
// the classifier and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialsaver"

// Metrics holds all service metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	MessagesProcessed *prometheus.CounterVec
	IngestDuration    prometheus.Histogram

	// Classification
	ClassificationsTotal   *prometheus.CounterVec
	ClassificationDuration prometheus.Histogram

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers every metric on a fresh registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Inbound messages by channel and outcome",
		}, []string{"channel", "outcome"}),
		IngestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Time from message receipt to reply",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		ClassificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Model classification calls by outcome",
		}, []string{"outcome"}),
		ClassificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Model round trip latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveClassification records one classifier round trip.
func (m *Metrics) ObserveClassification(outcome string, took time.Duration) {
	m.ClassificationsTotal.WithLabelValues(outcome).Inc()
	m.ClassificationDuration.Observe(took.Seconds())
}

// ObserveMessage records one processed inbound message.
func (m *Metrics) ObserveMessage(channel, outcome string, took time.Duration) {
	m.MessagesProcessed.WithLabelValues(channel, outcome).Inc()
	m.IngestDuration.Observe(took.Seconds())
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
