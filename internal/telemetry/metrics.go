package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the turn pipeline.
type Metrics struct {
	turnsTotal        *prometheus.CounterVec
	failuresTotal     *prometheus.CounterVec
	tokensTotal       *prometheus.CounterVec
	firstTokenSeconds prometheus.Histogram
}

// NewMetrics registers instruments on the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer registers instruments on reg. Tests pass a fresh
// registry to avoid duplicate-registration panics.
func NewMetricsWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vita",
			Name:      "turns_total",
			Help:      "Completed conversation turns by routed intent and routing source.",
		}, []string{"intent", "source"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vita",
			Name:      "failures_total",
			Help:      "Caught failures by operation.",
		}, []string{"operation"}),
		tokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vita",
			Name:      "llm_tokens_total",
			Help:      "Model tokens by tier and direction.",
		}, []string{"tier", "direction"}),
		firstTokenSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vita",
			Name:      "first_token_seconds",
			Help:      "Latency from turn start to first streamed token.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		}),
	}
}

// ObserveTurn flushes one turn snapshot into the instruments. source is
// "heuristic", "model" or "cache" depending on how the intent was decided.
func (m *Metrics) ObserveTurn(snap Snapshot, source string) {
	if m == nil {
		return
	}
	intent := snap.Intent
	if intent == "" {
		intent = "unknown"
	}
	m.turnsTotal.WithLabelValues(intent, source).Inc()
	for tier, stats := range snap.Tiers {
		m.tokensTotal.WithLabelValues(tier, "in").Add(float64(stats.TokensIn))
		m.tokensTotal.WithLabelValues(tier, "out").Add(float64(stats.TokensOut))
	}
	for _, failure := range snap.Failures {
		m.failuresTotal.WithLabelValues(failure.Operation).Inc()
	}
	if snap.FirstTokenSeen {
		m.firstTokenSeconds.Observe(float64(snap.FirstTokenLatency) / float64(time.Second))
	}
}
