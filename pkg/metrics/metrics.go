package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mcontrib"

// Metrics holds the counters recorded while resolving, building and
// publishing a run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	constructions *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	publishes     *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_resolutions_total",
				Help:      "Configuration resolutions by outcome",
			},
			[]string{"outcome"},
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "component_constructions_total",
				Help:      "Component constructions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifact_uploads_total",
				Help:      "Artifact uploads by sink and outcome",
			},
			[]string{"sink", "outcome"},
		),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_publishes_total",
				Help:      "Publish calls by outcome (published, skipped, failed)",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.resolutions, m.constructions, m.uploads, m.publishes)
	return m
}

// ObserveResolve records the outcome of a configuration resolution.
func (m *Metrics) ObserveResolve(err error) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome(err)).Inc()
}

// ObserveConstruction records the outcome of building one component.
func (m *Metrics) ObserveConstruction(kind string, err error) {
	if m == nil {
		return
	}
	m.constructions.WithLabelValues(kind, outcome(err)).Inc()
}

// ObserveUpload records the outcome of one upload to a sink.
func (m *Metrics) ObserveUpload(sink string, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(sink, outcome(err)).Inc()
}

// ObservePublish records a publish call. skipped is true on non-leader ranks.
func (m *Metrics) ObservePublish(skipped bool, err error) {
	if m == nil {
		return
	}
	switch {
	case skipped:
		m.publishes.WithLabelValues("skipped").Inc()
	case err != nil:
		m.publishes.WithLabelValues("failed").Inc()
	default:
		m.publishes.WithLabelValues("published").Inc()
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
