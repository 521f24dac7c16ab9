package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CredentialsIssued    prometheus.Counter
	Verifications        *prometheus.CounterVec
	VerificationDuration *prometheus.HistogramVec
	RequestsCreated      prometheus.Counter
	RequestsFinalized    *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proof_gateway_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proof_gateway_verifications_total",
			Help: "Proof verifications by type and outcome",
		}, []string{"type", "outcome"}),
		VerificationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proof_gateway_verification_duration_seconds",
			Help:    "Wall-clock duration of proof verification",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "proof_gateway_verification_requests_created_total",
			Help: "Verification requests created by verifiers",
		}),
		RequestsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "proof_gateway_verification_requests_finalized_total",
			Help: "Verification requests reaching a terminal state",
		}, []string{"status"}),
	}
}

// Outcome labels for the verifications counter.
const (
	OutcomeVerified = "verified"
	OutcomeRejected = "rejected"
	OutcomeReplay   = "replay"
	OutcomeError    = "error"
)

func (m *Metrics) IncrementCredentialsIssued() {
	m.CredentialsIssued.Inc()
}

func (m *Metrics) ObserveVerification(verificationType, outcome string, seconds float64) {
	m.Verifications.WithLabelValues(verificationType, outcome).Inc()
	m.VerificationDuration.WithLabelValues(verificationType).Observe(seconds)
}

func (m *Metrics) IncrementRequestsCreated() {
	m.RequestsCreated.Inc()
}

func (m *Metrics) IncrementRequestsFinalized(status string) {
	m.RequestsFinalized.WithLabelValues(status).Inc()
}
