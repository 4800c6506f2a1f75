// Package metrics holds the Prometheus collectors of the email dispatcher.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Send outcomes.
const (
	OutcomeSent          = "sent"
	OutcomeNoSettings    = "no_settings"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeFailed        = "failed"
)

// Metrics counts email outcomes and queue activity.
type Metrics struct {
	Emails     *prometheus.CounterVec
	Dropped    prometheus.Counter
	QueueDepth prometheus.Gauge
}

// New creates and registers dispatcher metrics on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewdesk",
			Subsystem: "dispatch",
			Name:      "emails_total",
			Help:      "Email send attempts by outcome.",
		}, []string{"outcome"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reviewdesk",
			Subsystem: "dispatch",
			Name:      "dropped_total",
			Help:      "Messages dropped because the queue was full or closed.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reviewdesk",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Messages waiting in the dispatch queue.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Emails, m.Dropped, m.QueueDepth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	// Pre-create every outcome so all series exist from startup.
	for _, outcome := range []string{OutcomeSent, OutcomeNoSettings, OutcomeQuotaExceeded, OutcomeFailed} {
		m.Emails.WithLabelValues(outcome)
	}
	return m, nil
}

// NewUnregistered returns metrics bound to a private registry, for tests and
// components that run without /metrics.
func NewUnregistered() *Metrics {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}

// Observe increments the counter for outcome.
func (m *Metrics) Observe(outcome string) {
	m.Emails.WithLabelValues(outcome).Inc()
}
