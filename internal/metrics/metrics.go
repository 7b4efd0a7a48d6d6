// Package metrics exposes Prometheus counters for conversions and HTTP
// requests on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutcomeSucceeded labels conversions that returned no error.
const OutcomeSucceeded = "succeeded"

// Metrics holds the regift collectors. A nil *Metrics ignores every call.
type Metrics struct {
	registry            *prometheus.Registry
	conversionsTotal    *prometheus.CounterVec
	conversionDuration  *prometheus.HistogramVec
	framesAppended      prometheus.Counter
	conversionsInFlight prometheus.Gauge
	requestsTotal       prometheus.Counter
	errorsTotal         prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	conversionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "regift_conversions_total",
		Help: "Conversions finished, by outcome (succeeded or error kind)",
	}, []string{"outcome"})
	conversionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regift_conversion_duration_seconds",
		Help:    "Wall time of finished conversions",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"outcome"})
	framesAppended := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regift_frames_appended_total",
		Help: "Frames committed to GIF encoders",
	})
	conversionsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "regift_conversions_in_flight",
		Help: "Conversions currently running",
	})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regift_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "regift_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		conversionsTotal,
		conversionDuration,
		framesAppended,
		conversionsInFlight,
		requestsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:            registry,
		conversionsTotal:    conversionsTotal,
		conversionDuration:  conversionDuration,
		framesAppended:      framesAppended,
		conversionsInFlight: conversionsInFlight,
		requestsTotal:       requestsTotal,
		errorsTotal:         errorsTotal,
	}
}

// ConversionStarted bumps the in-flight gauge. Pair with ObserveConversion.
func (m *Metrics) ConversionStarted() {
	if m == nil {
		return
	}
	m.conversionsInFlight.Inc()
}

// ObserveConversion records a finished conversion. kind is the error kind,
// or empty for success.
func (m *Metrics) ObserveConversion(kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := kind
	if outcome == "" {
		outcome = OutcomeSucceeded
	}
	m.conversionsInFlight.Dec()
	m.conversionsTotal.WithLabelValues(outcome).Inc()
	m.conversionDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AddFrames counts frames committed to an encoder.
func (m *Metrics) AddFrames(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.framesAppended.Add(float64(n))
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
