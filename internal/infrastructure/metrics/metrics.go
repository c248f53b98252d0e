package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provider lookup outcomes
const (
	OutcomeFound         = "found"
	OutcomeNotFound      = "not_found"
	OutcomeNotConfigured = "not_configured"
	OutcomeError         = "error"
)

// Metrics owns the service's prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests             *prometheus.CounterVec
	responseTime         *prometheus.HistogramVec
	providerLookups      *prometheus.CounterVec
	providerResponseTime *prometheus.HistogramVec
	detections           *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nutriscan_http_response_time_seconds",
			Help:    "HTTP response time in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		providerLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_provider_lookups_total",
			Help: "Product lookups per provider and outcome",
		}, []string{"provider", "outcome"}),
		providerResponseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nutriscan_provider_response_time_seconds",
			Help:    "Provider lookup time in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}, []string{"provider"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_barcode_detections_total",
			Help: "Barcodes detected per symbology",
		}, []string{"symbology"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.responseTime,
		m.providerLookups,
		m.providerResponseTime,
		m.detections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one served HTTP request
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.responseTime.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProviderLookup records one provider call
func (m *Metrics) RecordProviderLookup(provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.providerLookups.WithLabelValues(provider, outcome).Inc()
	m.providerResponseTime.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordDetection records one detected barcode
func (m *Metrics) RecordDetection(symbology string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(symbology).Inc()
}
