// Package metrics exposes Prometheus instrumentation for record coding,
// the archive and the HTTP service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics of the module
type Metrics struct {
	// Codec metrics
	recordsEncodedTotal *prometheus.CounterVec
	recordsDecodedTotal *prometheus.CounterVec
	codecDuration       *prometheus.HistogramVec
	recordBytes         prometheus.Histogram

	// Archive metrics
	archiveOperationsTotal *prometheus.CounterVec

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
	authRequestsTotal    *prometheus.CounterVec
}

// New creates all metrics and registers them on reg. Pass a fresh
// prometheus.NewRegistry() in tests so registrations do not collide.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		recordsEncodedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iso2709_records_encoded_total",
				Help: "Total number of records encoded",
			},
			[]string{"status"},
		),

		recordsDecodedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iso2709_records_decoded_total",
				Help: "Total number of records decoded",
			},
			[]string{"status"},
		),

		codecDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iso2709_codec_duration_seconds",
				Help:    "Record encode and decode duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"operation"},
		),

		recordBytes: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "iso2709_record_bytes",
				Help:    "Size of encoded or decoded records in bytes",
				Buckets: prometheus.ExponentialBuckets(32, 2, 12),
			},
		),

		archiveOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iso2709_archive_operations_total",
				Help: "Total number of archive operations",
			},
			[]string{"operation", "status"},
		),

		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iso2709_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "iso2709_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "iso2709_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		authRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iso2709_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusSuccess
}

// ObserveEncode records one encode call. size is ignored on error.
func (m *Metrics) ObserveEncode(size int, err error, duration time.Duration) {
	m.recordsEncodedTotal.WithLabelValues(status(err)).Inc()
	m.codecDuration.WithLabelValues("encode").Observe(duration.Seconds())
	if err == nil {
		m.recordBytes.Observe(float64(size))
	}
}

// ObserveDecode records one decode call.
func (m *Metrics) ObserveDecode(size int, err error, duration time.Duration) {
	m.recordsDecodedTotal.WithLabelValues(status(err)).Inc()
	m.codecDuration.WithLabelValues("decode").Observe(duration.Seconds())
	if err == nil {
		m.recordBytes.Observe(float64(size))
	}
}

// RecordArchiveOperation records an archive operation
func (m *Metrics) RecordArchiveOperation(operation string, err error) {
	m.archiveOperationsTotal.WithLabelValues(operation, status(err)).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthRequest records an authentication attempt
func (m *Metrics) RecordAuthRequest(success bool) {
	s := statusSuccess
	if !success {
		s = statusError
	}
	m.authRequestsTotal.WithLabelValues(s).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
