package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts workflow transitions by resource type, operation, and
// outcome (success, denied, invalid_state, self_approval, conflict).
type Metrics struct {
	transitions *prometheus.CounterVec
}

// NewMetrics creates and registers the governance metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aide_governance_transitions_total",
			Help: "Governance workflow operations, by resource type, operation, and outcome.",
		}, []string{"resource_type", "op", "outcome"}),
	}
}

func (m *Metrics) ObserveTransition(resourceType, op, outcome string) {
	m.transitions.WithLabelValues(resourceType, op, outcome).Inc()
}
