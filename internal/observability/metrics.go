// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Builder metrics
	DeepLinksIssued     *prometheus.CounterVec
	BuildErrors         *prometheus.CounterVec
	BuildDuration       *prometheus.HistogramVec
	TransactionSize     prometheus.Histogram
	DeepLinkLength      prometheus.Histogram

	// Policy metrics
	SecurityRejections  *prometheus.CounterVec
	RateLimitRejections prometheus.Counter

	// Confirmation metrics
	ConfirmationsTotal   *prometheus.CounterVec
	ConfirmationAttempts prometheus.Histogram

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_forge"
	}

	return &Metrics{
		// Builder metrics
		DeepLinksIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "deep_links_issued_total",
			Help:      "Total number of deep links issued by flow",
		}, []string{"flow"}),
		BuildErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "build_errors_total",
			Help:      "Total number of failed build requests by error kind",
		}, []string{"kind"}),
		BuildDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "build_duration_seconds",
			Help:      "End-to-end build duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		TransactionSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "transaction_size_bytes",
			Help:      "Serialized transaction size in bytes",
			Buckets:   []float64{128, 256, 384, 512, 768, 1024, 1232},
		}),
		DeepLinkLength: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "deep_link_length_chars",
			Help:      "Deep-link URI length in characters",
			Buckets:   []float64{250, 500, 750, 1000, 1500, 2000},
		}),

		// Policy metrics
		SecurityRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "security_rejections_total",
			Help:      "Total number of security rejections by reason",
		}, []string{"reason"}),
		RateLimitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of rate-limited requests",
		}),

		// Confirmation metrics
		ConfirmationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "confirm",
			Name:      "confirmations_total",
			Help:      "Total number of settled confirmations by status",
		}, []string{"status"}),
		ConfirmationAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "confirm",
			Name:      "confirmation_attempts",
			Help:      "Ledger queries per settled confirmation",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDeepLinkIssued increments the issued counter and observes sizes.
func RecordDeepLinkIssued(flow string, txBytes, uriChars int) {
	DefaultMetrics.DeepLinksIssued.WithLabelValues(flow).Inc()
	DefaultMetrics.TransactionSize.Observe(float64(txBytes))
	DefaultMetrics.DeepLinkLength.Observe(float64(uriChars))
}

// RecordBuildError increments the build error counter.
func RecordBuildError(kind string) {
	DefaultMetrics.BuildErrors.WithLabelValues(kind).Inc()
}

// RecordBuildDuration observes one build's duration.
func RecordBuildDuration(flow string, seconds float64) {
	DefaultMetrics.BuildDuration.WithLabelValues(flow).Observe(seconds)
}

// RecordSecurityRejection increments the rejection counter for a reason code.
func RecordSecurityRejection(reason string) {
	DefaultMetrics.SecurityRejections.WithLabelValues(reason).Inc()
}

// RecordRateLimited increments the rate-limit rejection counter.
func RecordRateLimited() {
	DefaultMetrics.RateLimitRejections.Inc()
}

// RecordConfirmation records a settled confirmation.
func RecordConfirmation(status string, attempts int) {
	DefaultMetrics.ConfirmationsTotal.WithLabelValues(status).Inc()
	if attempts > 0 {
		DefaultMetrics.ConfirmationAttempts.Observe(float64(attempts))
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
