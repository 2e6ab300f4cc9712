package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	publish  *prometheus.CounterVec
	uploads  prometheus.Counter
}

// NewMetrics creates the collectors on a dedicated registry so tests can
// run multiple gateways in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telepress_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "telepress_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		publish: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "telepress_publish_total",
			Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
		uploads: factory.NewCounter(prometheus.CounterOpts{
			Name: "telepress_uploads_total",
			Help: "Accepted file uploads.",
		}),
	}
}

// RecordPublish counts one publish attempt. Outcome is one of ok,
// not_configured, denied, provider_error.
func (m *Metrics) RecordPublish(outcome string) {
	m.publish.WithLabelValues(outcome).Inc()
}

// RecordUpload counts one accepted upload.
func (m *Metrics) RecordUpload() {
	m.uploads.Inc()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument is a chi middleware recording request counts and latency.
// The route label uses the chi pattern, not the raw path, to bound
// cardinality.
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
