package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter

	// Checkin workflow metrics
	CheckinOperationsCounter *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics.
func InitMetrics() {
	prefix := "checkin_backend"

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	CheckinOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_checkin_operations_total",
			Help: "Total number of checkin operations",
		},
		[]string{"operation"},
	)
}

// RecordCheckinOperation increments the counter for checkin operations
// ("create", "aprovar", "rejeitar", "upload").
func RecordCheckinOperation(operation string) {
	if CheckinOperationsCounter != nil {
		CheckinOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordAuthAttempt increments the auth attempt counter, and the success
// counter when ok is true.
func RecordAuthAttempt(ok bool) {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
	if ok {
		AuthSuccessCounter.Inc()
	}
}
