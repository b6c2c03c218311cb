// Package metrics exposes prometheus instruments for the metering core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics holds application-level counters. A nil *Metrics is safe to
// call; services treat instrumentation as optional.
type Metrics struct {
	admissionAllowed  *prometheus.CounterVec
	admissionDenied   *prometheus.CounterVec
	usageIncrements   *prometheus.CounterVec
	thresholdCrossed  *prometheus.CounterVec
	dispatchFailures  prometheus.Counter
	fallbackTierFixes prometheus.Counter
}

// New registers the metering instruments on the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		admissionAllowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_admission_allowed_total",
			Help: "Admission checks that allowed the action.",
		}, []string{"metric"}),
		admissionDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_admission_denied_total",
			Help: "Admission checks that denied the action.",
		}, []string{"metric", "reason"}),
		usageIncrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_usage_increments_total",
			Help: "Usage counter increments applied.",
		}, []string{"metric"}),
		thresholdCrossed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quill_usage_threshold_crossings_total",
			Help: "First-time threshold crossings per cycle.",
		}, []string{"metric", "level"}),
		dispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quill_notification_dispatch_failures_total",
			Help: "Threshold notification dispatch failures (best effort).",
		}),
		fallbackTierFixes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quill_fallback_tier_assignments_total",
			Help: "Users self-healed onto the fallback tier.",
		}),
	}

	collectors := []prometheus.Collector{
		m.admissionAllowed,
		m.admissionDenied,
		m.usageIncrements,
		m.thresholdCrossed,
		m.dispatchFailures,
		m.fallbackTierFixes,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return m, nil
}

// NewForTest builds metrics on a private registry.
func NewForTest() *Metrics {
	m, _ := New(prometheus.NewRegistry())
	return m
}

func (m *Metrics) IncAdmissionAllowed(metric string) {
	if m == nil {
		return
	}
	m.admissionAllowed.WithLabelValues(metric).Inc()
}

func (m *Metrics) IncAdmissionDenied(metric, reason string) {
	if m == nil {
		return
	}
	m.admissionDenied.WithLabelValues(metric, reason).Inc()
}

func (m *Metrics) IncUsageIncrement(metric string) {
	if m == nil {
		return
	}
	m.usageIncrements.WithLabelValues(metric).Inc()
}

func (m *Metrics) IncThresholdCrossed(metric, level string) {
	if m == nil {
		return
	}
	m.thresholdCrossed.WithLabelValues(metric, level).Inc()
}

func (m *Metrics) IncDispatchFailure() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}

func (m *Metrics) IncFallbackTierFix() {
	if m == nil {
		return
	}
	m.fallbackTierFixes.Inc()
}

func provide() (*Metrics, error) {
	return New(prometheus.DefaultRegisterer)
}

var Module = fx.Module("observability.metrics",
	fx.Provide(provide),
)
