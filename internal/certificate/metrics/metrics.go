package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the certificate lifecycle counters. Construct once at
// startup; services tolerate a nil receiver so tests can skip registration.
type Metrics struct {
	Issued        prometheus.Counter
	Revoked       prometheus.Counter
	IssueFailures *prometheus.CounterVec
	CodeRetries   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Issued: factory.NewCounter(prometheus.CounterOpts{
			Name: "certverify_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		Revoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "certverify_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		IssueFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certverify_certificate_issue_failures_total",
			Help: "Issuance failures by error code",
		}, []string{"code"}),
		CodeRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "certverify_verification_code_retries_total",
			Help: "Verification code regenerations after a uniqueness conflict",
		}),
	}
}

func (m *Metrics) IncIssued() {
	if m != nil {
		m.Issued.Inc()
	}
}

func (m *Metrics) IncRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}

func (m *Metrics) IncIssueFailure(code string) {
	if m != nil {
		m.IssueFailures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) IncCodeRetry() {
	if m != nil {
		m.CodeRetries.Inc()
	}
}
