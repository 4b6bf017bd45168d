package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SaleMetrics records how unit sale finalizations end and how long each step takes.
type SaleMetrics struct {
	outcomes      *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	compensations *prometheus.CounterVec
}

// NewSaleMetrics registers the sale metrics on the provided registerer.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unit_sale_outcomes_total",
		Help: "Unit sale finalizations by terminal state.",
	}, []string{"state"})
	stepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unit_sale_step_duration_seconds",
		Help:    "Duration of each unit sale step in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "unit_sale_compensations_total",
		Help: "Partial-commit failures handed to the compensation hook.",
	}, []string{"state"})
	reg.MustRegister(outcomes, stepDuration, compensations)
	return &SaleMetrics{
		outcomes:      outcomes,
		stepDuration:  stepDuration,
		compensations: compensations,
	}
}

// IncOutcome counts a finished run under its terminal state.
func (m *SaleMetrics) IncOutcome(state string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveStep records the duration of one step.
func (m *SaleMetrics) ObserveStep(step string, duration time.Duration) {
	if m == nil || m.stepDuration == nil {
		return
	}
	m.stepDuration.WithLabelValues(normalizeLabel(step)).Observe(duration.Seconds())
}

// IncCompensation counts a compensation hook invocation.
func (m *SaleMetrics) IncCompensation(state string) {
	if m == nil || m.compensations == nil {
		return
	}
	m.compensations.WithLabelValues(normalizeLabel(state)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
