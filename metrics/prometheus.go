package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrsingh-rishi/voice-instructor/pipeline"
)

const namespace = "voice_instructor"

// Metrics contains all Prometheus metrics for the upload service
type Metrics struct {
	registry *prometheus.Registry

	// Upload metrics
	UploadsReceived prometheus.Counter
	UploadSize      prometheus.Histogram

	// Pipeline stage metrics
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec

	// Breaker metrics
	BreakerState *prometheus.GaugeVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics on a fresh registry, together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UploadsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_received_total",
			Help:      "Total number of audio uploads received",
		}),
		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of raw PCM uploads in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 9), // 1KB to ~64MB
		}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 17), // 1ms to ~65s
		}, []string{"stage", "outcome"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of failed pipeline stages by failure kind",
		}, []string{"stage", "kind"}),

		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_open",
			Help:      "1 when the capability's circuit breaker is not closed",
		}, []string{"breaker"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// Registry returns the registry all metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordUpload records a received upload
func (m *Metrics) RecordUpload(sizeBytes int) {
	m.UploadsReceived.Inc()
	m.UploadSize.Observe(float64(sizeBytes))
}

// ObserveStage implements pipeline.Observer.
func (m *Metrics) ObserveStage(stage pipeline.Stage, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
		kind := pipeline.KindInternal
		var perr *pipeline.Error
		if errors.As(err, &perr) {
			kind = perr.Kind
		}
		m.StageFailures.WithLabelValues(string(stage), kind.String()).Inc()
	}
	m.StageDuration.WithLabelValues(string(stage), outcome).Observe(elapsed.Seconds())
}

// SetBreakerStates publishes breaker states as reported by Pipeline.BreakerStates
func (m *Metrics) SetBreakerStates(states map[string]string) {
	for name, state := range states {
		open := 0.0
		if state != "closed" {
			open = 1
		}
		m.BreakerState.WithLabelValues(name).Set(open)
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
