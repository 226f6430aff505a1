package prometheus

import (
	"sync"
	"time"

	"marketplace-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Marketplace operations (product_add, order_submit, order_accept, ...)
	OperationsCounter *prometheus.CounterVec

	// Orders created and their value
	OrdersCreatedCounter prometheus.Counter
	OrderValueHistogram  prometheus.Histogram

	// Image uploads by outcome
	BlobUploadsCounter *prometheus.CounterVec

	// Open change feed subscriptions
	RealtimeSubscribersGauge prometheus.Gauge

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with configuration.
// Only the first call registers; later calls are no-ops.
func InitMetrics(config *config.Config) {
	initOnce.Do(func() {
		prefix := config.Metrics.Prefix

		AuthAttemptsCounter = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		})

		AuthErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		})

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		OperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_operations_total",
				Help: "Total number of marketplace operations by outcome",
			},
			[]string{"operation", "outcome"},
		)

		OrdersCreatedCounter = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_orders_created_total",
			Help: "Total number of orders created",
		})

		OrderValueHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_order_total_amount",
			Help:    "Total amount of created orders",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		})

		BlobUploadsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_blob_uploads_total",
				Help: "Total number of image uploads by outcome",
			},
			[]string{"outcome"},
		)

		RealtimeSubscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_realtime_subscribers",
			Help: "Number of open change feed subscriptions",
		})
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordOperation increments the counter for a marketplace operation
func RecordOperation(operation string, err error) {
	if OperationsCounter == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	OperationsCounter.WithLabelValues(operation, outcome).Inc()
}

// RecordOrderCreated counts a created order and observes its value
func RecordOrderCreated(total float64) {
	if OrdersCreatedCounter == nil {
		return
	}
	OrdersCreatedCounter.Inc()
	OrderValueHistogram.Observe(total)
}

// RecordBlobUpload counts an image upload attempt
func RecordBlobUpload(err error) {
	if BlobUploadsCounter == nil {
		return
	}
	if err != nil {
		BlobUploadsCounter.WithLabelValues("error").Inc()
		return
	}
	BlobUploadsCounter.WithLabelValues("success").Inc()
}

// RecordAuthAttempt counts an authentication attempt and its failure
func RecordAuthAttempt(err error) {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
	if err != nil {
		AuthErrorsCounter.Inc()
	}
}

// UpdateRealtimeSubscribers sets the subscription gauge
func UpdateRealtimeSubscribers(count int) {
	if RealtimeSubscribersGauge == nil {
		return
	}
	RealtimeSubscribersGauge.Set(float64(count))
}
