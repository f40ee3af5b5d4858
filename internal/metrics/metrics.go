// Package metrics exposes Prometheus instrumentation for generation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the generation collectors.
type Metrics struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	AttemptsTotal      *prometheus.CounterVec
	InFlight           prometheus.Gauge
	Availability       *prometheus.GaugeVec
	RateLimited        prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		GenerationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wayfarer",
				Name:      "generations_total",
				Help:      "Total number of generations by recipe and outcome",
			},
			[]string{"recipe", "outcome"},
		),
		GenerationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "wayfarer",
				Name:      "generation_duration_seconds",
				Help:      "Duration of generations in seconds, retries included",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"recipe"},
		),
		AttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wayfarer",
				Name:      "attempts_total",
				Help:      "Total number of model calls, retries included",
			},
			[]string{"recipe"},
		),
		InFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "wayfarer",
				Name:      "generation_in_flight",
				Help:      "1 while a generation holds the session",
			},
		),
		Availability: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wayfarer",
				Name:      "resource_available",
				Help:      "Last probed availability, 1 for the current reason",
			},
			[]string{"reason"},
		),
		RateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: "wayfarer",
				Name:      "rate_limited_total",
				Help:      "Requests refused by the rate limiter",
			},
		),
	}
}

// ObserveGeneration records one finished generation.
// outcome is "ok" or an error code.
func (m *Metrics) ObserveGeneration(recipe, outcome string, attempts int, took time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(recipe, outcome).Inc()
	m.GenerationDuration.WithLabelValues(recipe).Observe(took.Seconds())
	m.AttemptsTotal.WithLabelValues(recipe).Add(float64(attempts))
}

// SetAvailability marks reason as the current availability state.
func (m *Metrics) SetAvailability(reason string, reasons []string) {
	if m == nil {
		return
	}
	for _, r := range reasons {
		v := 0.0
		if r == reason {
			v = 1
		}
		m.Availability.WithLabelValues(r).Set(v)
	}
}
