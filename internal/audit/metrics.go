package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's prometheus instruments.
type Metrics struct {
	writes        *prometheus.CounterVec
	writeFailures prometheus.Counter
}

// NewMetrics creates and registers the ledger metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		writes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aide_audit_entries_total",
			Help: "Total audit entries written, by actor type and action.",
		}, []string{"actor_type", "action"}),
		writeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aide_audit_write_failures_total",
			Help: "Total audit writes that failed at the store.",
		}),
	}
}

func (m *Metrics) ObserveWrite(actorType, action string) {
	m.writes.WithLabelValues(actorType, action).Inc()
}

func (m *Metrics) ObserveWriteFailure() {
	m.writeFailures.Inc()
}
