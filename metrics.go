package negotiate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Init outcomes recorded in the inits_total counter.
const (
	outcomePolyfilled        = "polyfilled"
	outcomePolyfillFailed    = "polyfill_failed"
	outcomePolyfillsDisabled = "polyfills_disabled"
	outcomeNoSource          = "no_source"
)

// Polyfill stages recorded in the polyfill_failures_total counter.
const (
	stagePlugin = "plugin"
	stageInit   = "init"
)

// Metrics holds the Prometheus collectors for negotiation events.
// A nil *Metrics records nothing.
type Metrics struct {
	registrations    prometheus.Counter
	supersessions    prometheus.Counter
	inits            *prometheus.CounterVec
	polyfillFailures *prometheus.CounterVec
}

// NewMetrics creates the negotiation collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "negotiate",
			Name:      "source_registrations_total",
			Help:      "Total number of sources registered, including overwrites",
		}),

		supersessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "negotiate",
			Name:      "registry_supersessions_total",
			Help:      "Total number of registries superseded by a newer instance",
		}),

		inits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "negotiate",
			Name:      "inits_total",
			Help:      "Total number of negotiation runs by outcome",
		}, []string{"outcome"}),

		polyfillFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "negotiate",
			Name:      "polyfill_failures_total",
			Help:      "Total number of source polyfill calls that failed or panicked",
		}, []string{"stage"}),
	}
}

func (m *Metrics) registered() {
	if m != nil {
		m.registrations.Inc()
	}
}

func (m *Metrics) superseded() {
	if m != nil {
		m.supersessions.Inc()
	}
}

func (m *Metrics) initialized(outcome string) {
	if m != nil {
		m.inits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) polyfillFailed(stage string) {
	if m != nil {
		m.polyfillFailures.WithLabelValues(stage).Inc()
	}
}
