package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Metrics groups the collectors of the recommendation services.
type Metrics struct {
	RankingDuration  *prometheus.HistogramVec
	RankingErrors    *prometheus.CounterVec
	DigestsPublished prometheus.Counter
	BreakerState     *prometheus.GaugeVec
}

// NewMetrics registers the collectors with the default registry. Collectors
// registered by an earlier call are reused.
func NewMetrics(logger *logrus.Logger) *Metrics {
	return &Metrics{
		RankingDuration: register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinerec_ranking_duration_seconds",
			Help:    "Duration of ranking operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}), logger),

		RankingErrors: register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cinerec_ranking_errors_total",
			Help: "Failed ranking operations by error kind",
		}, []string{"operation", "kind"}), logger),

		DigestsPublished: register(prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cinerec_digests_published_total",
			Help: "Recommendation digests published to Kafka",
		}), logger),

		BreakerState: register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cinerec_store_breaker_state",
			Help: "Storage circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		}, []string{"backend"}), logger),
	}
}

// ObserveBreaker records a breaker state change.
func (m *Metrics) ObserveBreaker(backend string, state gobreaker.State) {
	m.BreakerState.WithLabelValues(backend).Set(float64(state))
}

func register[T prometheus.Collector](collector T, logger *logrus.Logger) T {
	if err := prometheus.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("Failed to register metric")
	}
	return collector
}
