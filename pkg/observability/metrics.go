package observability

import (
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the editor collectors.
type Metrics struct {
	Mutations *prometheus.CounterVec
	Rollbacks prometheus.Counter
	Nodes     *prometheus.GaugeVec
	Changes   *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lattice_mutations_total",
			Help: "Mutation attempts by operation and outcome.",
		}, []string{"op", "outcome"}),
		Rollbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "lattice_move_rollbacks_total",
			Help: "Moves undone because the post-move integrity check failed.",
		}),
		Nodes: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lattice_tree_nodes",
			Help: "Node count of each document after its last mutation.",
		}, []string{"document"}),
		Changes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lattice_change_size_nodes",
			Help:    "Nodes added, removed, moved or updated per committed change.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}, []string{"op"}),
	}
}

// ObserveMutation records one mutation attempt of a document.
func (m *Metrics) ObserveMutation(document string, evt *domain.MutationEvent) {
	m.Mutations.WithLabelValues(string(evt.Op), string(evt.Outcome)).Inc()
	if evt.Outcome == domain.OutcomeRolledBack {
		m.Rollbacks.Inc()
	}
	m.Nodes.WithLabelValues(document).Set(float64(evt.Nodes))
}

// ObserveChange records the size of a committed change.
func (m *Metrics) ObserveChange(evt *domain.ChangeEvent) {
	size := 0
	if d := evt.Diff; d != nil {
		size = len(d.Added) + len(d.Removed) + len(d.Moved) + len(d.Updated)
	}
	m.Changes.WithLabelValues(string(evt.Op)).Observe(float64(size))
}

// Forget drops the per-document series, e.g. after the document is deleted.
func (m *Metrics) Forget(document string) {
	m.Nodes.DeleteLabelValues(document)
}

// Hooks returns editor hooks feeding these metrics for one document.
func (m *Metrics) Hooks(document string) domain.Hooks {
	return domain.Hooks{
		OnMutation: func(evt *domain.MutationEvent) { m.ObserveMutation(document, evt) },
		OnChange:   m.ObserveChange,
	}
}
