package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes of a single reassignment pass.
const (
	OutcomeAdvanced  = "advanced"
	OutcomeCompleted = "completed"
	OutcomeParked    = "parked"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// RotationMetrics instruments the reassignment cycle. A nil *RotationMetrics
// is valid and records nothing.
type RotationMetrics struct {
	reg  prometheus.Registerer
	once sync.Once

	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	outcomes      *prometheus.CounterVec
	eligible      prometheus.Gauge
}

// NewRotationMetrics creates metrics registered against reg, or the default
// registerer when reg is nil.
func NewRotationMetrics(reg prometheus.Registerer) *RotationMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &RotationMetrics{reg: reg}
}

func (m *RotationMetrics) ensureRegistered() {
	m.once.Do(func() {
		m.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "task_rotation",
			Name:      "cycles_total",
			Help:      "Reassignment cycles run, by result (ok, error).",
		}, []string{"result"})
		m.cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "task_rotation",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full reassignment cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		})
		m.outcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "task_rotation",
			Name:      "task_outcomes_total",
			Help:      "Per-task outcomes of reassignment cycles.",
		}, []string{"outcome"})
		m.eligible = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "task_rotation",
			Name:      "eligible_tasks",
			Help:      "Tasks eligible for reassignment at the start of the last cycle.",
		})
		m.reg.MustRegister(m.cycles, m.cycleDuration, m.outcomes, m.eligible)
	})
}

// ObserveCycle records a finished cycle.
func (m *RotationMetrics) ObserveCycle(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ensureRegistered()
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

// ObserveOutcome counts one task outcome.
func (m *RotationMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ensureRegistered()
	m.outcomes.WithLabelValues(outcome).Inc()
}

// SetEligible records the eligible set size.
func (m *RotationMetrics) SetEligible(n int) {
	if m == nil {
		return
	}
	m.ensureRegistered()
	m.eligible.Set(float64(n))
}
