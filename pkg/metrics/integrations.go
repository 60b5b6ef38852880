package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// ExternalCallMetrics records calls to the payment gateway, messaging
// transports and object storage. A nil receiver records nothing.
type ExternalCallMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewExternalCallMetrics registers the external call metrics on reg.
func NewExternalCallMetrics(reg prometheus.Registerer) *ExternalCallMetrics {
	if reg == nil {
		return &ExternalCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "external_call_duration_seconds",
		Help:      "Duration of outbound calls to third-party services.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "external_calls_total",
		Help:      "Outbound calls to third-party services by outcome.",
	}, []string{"service", "operation", "outcome"})
	reg.MustRegister(duration, total)
	return &ExternalCallMetrics{duration: duration, total: total}
}

// Observe records one call. Skipped calls are counted but not timed.
func (m *ExternalCallMetrics) Observe(service, operation, outcome string, elapsed time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	service, operation, outcome = normalizeLabel(service), normalizeLabel(operation), normalizeLabel(outcome)
	m.total.WithLabelValues(service, operation, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.duration.WithLabelValues(service, operation).Observe(elapsed.Seconds())
	}
}

// Outcome maps an error onto the success/failure label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
