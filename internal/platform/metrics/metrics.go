package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Terminations    *prometheus.CounterVec
	Reactivations   prometheus.Counter
	Suspensions     prometheus.Counter
	KYCReviews      *prometheus.CounterVec
	IdPSyncFailures *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Terminations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_account_terminations_total",
			Help: "Total account terminations, by permanence.",
		}, []string{"permanent"}),
		Reactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_account_reactivations_total",
			Help: "Total account reactivations.",
		}),
		Suspensions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gavel_account_suspensions_total",
			Help: "Total account suspensions.",
		}),
		KYCReviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_kyc_reviews_total",
			Help: "Total KYC review decisions, by outcome.",
		}, []string{"outcome"}),
		IdPSyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gavel_idp_sync_failures_total",
			Help: "Identity provider sync failures left for reconciliation, by operation.",
		}, []string{"operation"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gavel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

// IncrementTermination records a termination by permanence.
func (m *Metrics) IncrementTermination(permanent bool) {
	if m == nil {
		return
	}
	label := "false"
	if permanent {
		label = "true"
	}
	m.Terminations.WithLabelValues(label).Inc()
}

// IncrementReactivation records a reactivation.
func (m *Metrics) IncrementReactivation() {
	if m == nil {
		return
	}
	m.Reactivations.Inc()
}

// IncrementSuspension records a suspension.
func (m *Metrics) IncrementSuspension() {
	if m == nil {
		return
	}
	m.Suspensions.Inc()
}

// IncrementKYCReview records a review decision by outcome.
func (m *Metrics) IncrementKYCReview(outcome string) {
	if m == nil {
		return
	}
	m.KYCReviews.WithLabelValues(outcome).Inc()
}

// IncrementIdPSyncFailure records a best-effort sync failure by operation.
func (m *Metrics) IncrementIdPSyncFailure(operation string) {
	if m == nil {
		return
	}
	m.IdPSyncFailures.WithLabelValues(operation).Inc()
}

// ObserveRequest records request latency.
func (m *Metrics) ObserveRequest(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, path, status).Observe(d.Seconds())
}
