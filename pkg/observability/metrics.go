package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seranno/wayfarer/pkg/domain"
)

// Metrics holds the Prometheus collectors for path-engine activity.
type Metrics struct {
	visits    *prometheus.CounterVec
	merges    prometheus.Counter
	absorbed  prometheus.Counter
	histories prometheus.Histogram
}

// NewMetrics creates and registers the collectors with the given registerer.
// Pass prometheus.DefaultRegisterer for the common case.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		visits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayfarer_visits_total",
				Help: "Total number of recorded visits by arrival kind and path effect",
			},
			[]string{"kind", "op"},
		),
		merges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wayfarer_merges_total",
				Help: "Total number of merge passes that absorbed duplicate records",
			},
		),
		absorbed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wayfarer_histories_absorbed_total",
				Help: "Total number of duplicate history records removed by merges",
			},
		),
		histories: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wayfarer_histories_per_reader",
				Help:    "Collection size observed after each settled visit",
				Buckets: prometheus.LinearBuckets(1, 2, 10),
			},
		),
	}
	reg.MustRegister(m.visits, m.merges, m.absorbed, m.histories)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors. Compose them with
// other hooks before passing to the service if needed.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnVisit: func(ctx context.Context, e *domain.VisitEvent) {
			m.visits.WithLabelValues(string(e.Kind), string(e.Op)).Inc()
			m.histories.Observe(float64(e.Histories))
		},
		OnMerge: func(ctx context.Context, e *domain.MergeEvent) {
			m.merges.Inc()
			m.absorbed.Add(float64(len(e.Absorbed)))
		},
	}
}
