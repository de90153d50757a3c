// Package metrics provides Prometheus metrics for Sitesmith monitoring.
// Exports HTTP, provider-call, credential-rotation, and pipeline metrics.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors for Sitesmith
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Provider Call Metrics
	ProviderAttemptsTotal   *prometheus.CounterVec
	ProviderAttemptDuration *prometheus.HistogramVec
	ProviderExhaustedTotal  prometheus.Counter

	// Credential Rotation Metrics
	KeyPoolSize       prometheus.Gauge
	KeyRotationsTotal *prometheus.CounterVec
	KeyFailuresTotal  *prometheus.CounterVec
	KeyPoolResets     prometheus.Counter

	// Pipeline Metrics
	GenerationRunsTotal     *prometheus.CounterVec
	PipelineStepsTotal      *prometheus.CounterVec
	PipelineStepDuration    *prometheus.HistogramVec
	CorrectiveRetriesTotal  *prometheus.CounterVec
	GenerationFilesProduced prometheus.Histogram

	// WebSocket Metrics
	WSConnectionsGauge prometheus.Gauge
	WSEventsTotal      *prometheus.CounterVec

	// System Metrics
	StartupTime prometheus.Gauge
}

// Get returns the singleton Metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

// newMetrics creates and registers all Prometheus metrics
func newMetrics() *Metrics {
	m := &Metrics{}

	// HTTP Metrics
	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitesmith",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"endpoint", "method"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitesmith",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	// Provider Call Metrics
	m.ProviderAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "provider",
			Name:      "attempts_total",
			Help:      "Total number of provider call attempts by outcome",
		},
		[]string{"status"},
	)

	m.ProviderAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitesmith",
			Subsystem: "provider",
			Name:      "attempt_duration_seconds",
			Help:      "Provider call attempt duration in seconds",
			Buckets:   []float64{.5, 1, 2, 3, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	m.ProviderExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "provider",
			Name:      "exhausted_total",
			Help:      "Total number of calls that exhausted the full retry budget",
		},
	)

	// Credential Rotation Metrics
	m.KeyPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitesmith",
			Subsystem: "keys",
			Name:      "pool_size",
			Help:      "Number of configured provider credentials",
		},
	)

	m.KeyRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "keys",
			Name:      "rotations_total",
			Help:      "Total number of rotations to a different credential",
		},
		[]string{"slot"},
	)

	m.KeyFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "keys",
			Name:      "failures_total",
			Help:      "Total number of failures recorded against credentials",
		},
		[]string{"slot"},
	)

	m.KeyPoolResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "keys",
			Name:      "pool_resets_total",
			Help:      "Total number of full-pool health resets",
		},
	)

	// Pipeline Metrics
	m.GenerationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of generation runs by outcome",
		},
		[]string{"outcome"},
	)

	m.PipelineStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "pipeline",
			Name:      "steps_total",
			Help:      "Total number of pipeline steps by step name and content source",
		},
		[]string{"step", "source"},
	)

	m.PipelineStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sitesmith",
			Subsystem: "pipeline",
			Name:      "step_duration_seconds",
			Help:      "Pipeline step duration in seconds",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"step"},
	)

	m.CorrectiveRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "pipeline",
			Name:      "corrective_retries_total",
			Help:      "Total number of corrective re-prompts issued for undersized or malformed output",
		},
		[]string{"step"},
	)

	m.GenerationFilesProduced = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sitesmith",
			Subsystem: "pipeline",
			Name:      "files_produced",
			Help:      "Number of files produced per generation run",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 15},
		},
	)

	// WebSocket Metrics
	m.WSConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitesmith",
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Current number of progress WebSocket connections",
		},
	)

	m.WSEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sitesmith",
			Subsystem: "websocket",
			Name:      "events_total",
			Help:      "Total number of progress events broadcast by event type",
		},
		[]string{"type"},
	)

	// System Metrics
	m.StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sitesmith",
			Subsystem: "server",
			Name:      "startup_timestamp",
			Help:      "Server startup timestamp",
		},
	)

	m.StartupTime.Set(float64(time.Now().Unix()))

	return m
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration) {
	status := statusCodeToLabel(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordProviderAttempt records one provider call attempt with its
// classified outcome (success, rate_limited, transient, malformed).
func (m *Metrics) RecordProviderAttempt(status string, duration time.Duration) {
	m.ProviderAttemptsTotal.WithLabelValues(status).Inc()
	m.ProviderAttemptDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordProviderExhausted records a call that spent its whole retry budget
func (m *Metrics) RecordProviderExhausted() {
	m.ProviderExhaustedTotal.Inc()
}

// SetKeyPoolSize sets the credential pool size gauge
func (m *Metrics) SetKeyPoolSize(n int) {
	m.KeyPoolSize.Set(float64(n))
}

// RecordKeyRotation records a rotation onto the credential in the given slot
func (m *Metrics) RecordKeyRotation(slot int) {
	m.KeyRotationsTotal.WithLabelValues(slotLabel(slot)).Inc()
}

// RecordKeyFailure records a failure against the credential in the given slot
func (m *Metrics) RecordKeyFailure(slot int) {
	m.KeyFailuresTotal.WithLabelValues(slotLabel(slot)).Inc()
}

// RecordKeyPoolReset records a full-pool health reset
func (m *Metrics) RecordKeyPoolReset() {
	m.KeyPoolResets.Inc()
}

// RecordGenerationRun records a completed generation run. Outcome is one of
// provider, degraded (at least one fallback step), or no_credentials.
func (m *Metrics) RecordGenerationRun(outcome string, files int) {
	m.GenerationRunsTotal.WithLabelValues(outcome).Inc()
	m.GenerationFilesProduced.Observe(float64(files))
}

// RecordPipelineStep records one finished pipeline step and where its
// content came from (provider or fallback).
func (m *Metrics) RecordPipelineStep(step, source string, duration time.Duration) {
	m.PipelineStepsTotal.WithLabelValues(step, source).Inc()
	m.PipelineStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordCorrectiveRetry records a corrective re-prompt for a step
func (m *Metrics) RecordCorrectiveRetry(step string) {
	m.CorrectiveRetriesTotal.WithLabelValues(step).Inc()
}

// RecordWSConnection records a progress WebSocket connection change
func (m *Metrics) RecordWSConnection(delta int) {
	m.WSConnectionsGauge.Add(float64(delta))
}

// RecordWSEvent records a broadcast progress event
func (m *Metrics) RecordWSEvent(eventType string) {
	m.WSEventsTotal.WithLabelValues(eventType).Inc()
}

// Helper function to convert status code to label
func statusCodeToLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

func slotLabel(slot int) string {
	if slot <= 0 {
		return "fallback"
	}
	return "slot_" + strconv.Itoa(slot)
}
