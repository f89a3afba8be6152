// Package metrics holds the prometheus collectors for device linking.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Link attempt outcomes.
const (
	OutcomeLinked    = "linked"
	OutcomeExpired   = "expired"
	OutcomeNoPending = "no_pending"
	OutcomeMismatch  = "mismatch"
	OutcomeBadProof  = "bad_proof"
	OutcomeRejected  = "rejected"
)

// Metrics counts linking activity. A nil *Metrics records nothing.
type Metrics struct {
	CodesGenerated  prometheus.Counter
	LinkAttempts    *prometheus.CounterVec
	DevicesUnlinked prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CodesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_link_codes_generated_total",
			Help: "Total number of link codes generated.",
		}),
		LinkAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devlink_link_attempts_total",
				Help: "Total number of link acceptance attempts by outcome.",
			},
			[]string{"outcome"},
		),
		DevicesUnlinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devlink_devices_unlinked_total",
			Help: "Total number of devices removed from the registry.",
		}),
	}
	reg.MustRegister(m.CodesGenerated, m.LinkAttempts, m.DevicesUnlinked)
	return m
}

func (m *Metrics) CodeGenerated() {
	if m != nil {
		m.CodesGenerated.Inc()
	}
}

func (m *Metrics) LinkAttempt(outcome string) {
	if m != nil {
		m.LinkAttempts.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) DeviceUnlinked() {
	if m != nil {
		m.DevicesUnlinked.Inc()
	}
}
