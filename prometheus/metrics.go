package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"catalog-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Product metrics
	ProductOperationsCounter prometheus.CounterVec

	// Remote image store metrics
	ImageStoreOperationsCounter prometheus.CounterVec

	// Compensation metrics: best-effort image deletes issued after a failed
	// or completed database write
	CompensationCounter prometheus.CounterVec
)

var initialized bool

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	if initialized {
		return
	}
	initialized = true

	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// HTTP request metrics
	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration
	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthErrorsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	// Database operation metrics
	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Product metrics
	ProductOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of product operations",
		},
		[]string{"operation"},
	)

	// Remote image store metrics
	ImageStoreOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_image_store_operations_total",
			Help: "Total number of remote image store operations",
		},
		[]string{"operation", "outcome"},
	)

	// Compensation metrics
	CompensationCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_image_compensations_total",
			Help: "Total number of best-effort remote image deletes outside a transaction",
		},
		[]string{"trigger", "outcome"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if !initialized {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if !initialized {
		return
	}
	ProductOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordImageStoreOperation increments the counter for image store calls
func RecordImageStoreOperation(operation, outcome string) {
	if !initialized {
		return
	}
	ImageStoreOperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordCompensation increments the counter for best-effort image cleanup
func RecordCompensation(trigger, outcome string) {
	if !initialized {
		return
	}
	CompensationCounter.WithLabelValues(trigger, outcome).Inc()
}

// RecordAuthError increments the counter for authentication errors
func RecordAuthError(reason string) {
	if !initialized {
		return
	}
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordAuthAttempt increments the counter for authentication attempts
func RecordAuthAttempt() {
	if !initialized {
		return
	}
	AuthAttemptsCounter.Inc()
}
