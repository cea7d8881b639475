package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks    *prometheus.CounterVec
	CacheHits prometheus.Counter
	Duration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "certverify",
			Subsystem: "verification",
			Name:      "checks_total",
			Help:      "Verification outcomes by reason.",
		}, []string{"outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "certverify",
			Subsystem: "verification",
			Name:      "code_cache_hits_total",
			Help:      "Verification code lookups served from cache.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "certverify",
			Subsystem: "verification",
			Name:      "duration_seconds",
			Help:      "Time spent verifying a certificate.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Checks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
}
