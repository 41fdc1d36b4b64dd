package workout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts plan generations and model attempts. A nil *Metrics records nothing.
type Metrics struct {
	generations   *prometheus.CounterVec
	modelAttempts *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // defaults suffice.
			Name: "fitquest_plan_generations_total",
			Help: "Generated workout plans by source and fallback reason.",
		}, []string{"source", "reason"}),
		modelAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct // defaults suffice.
			Name: "fitquest_model_attempts_total",
			Help: "Calls to the text-generation service by model and outcome.",
		}, []string{"model", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{ //nolint:exhaustruct // defaults suffice.
			Name:    "fitquest_plan_generation_seconds",
			Help:    "Time spent generating a workout plan.",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 30, 60, 120, 240},
		}, []string{"source"}),
	}
	reg.MustRegister(m.generations, m.modelAttempts, m.duration)
	return m
}

func (m *Metrics) observeGeneration(source Source, reason FallbackReason, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(string(source), string(reason)).Inc()
	m.duration.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeAttempt(model string, outcome attemptOutcome) {
	if m == nil {
		return
	}
	m.modelAttempts.WithLabelValues(model, string(outcome)).Inc()
}
