package triplestore

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semgraph/errors"
)

// storeMetrics exposes store mutation counters as Prometheus metrics.
// A nil receiver disables all recording, so the hot path carries no
// conditionals beyond one nil check.
type storeMetrics struct {
	adds    prometheus.Counter
	removes prometheus.Counter
	size    prometheus.Gauge
}

// WithMetrics registers triple mutation metrics with the given registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(s *Store) error {
		if registerer == nil {
			return nil
		}
		m, err := newStoreMetrics(registerer)
		if err != nil {
			return errors.WrapTransient(err, "TripleStore", "WithMetrics", "metrics registration")
		}
		s.metrics = m
		return nil
	}
}

func newStoreMetrics(registerer prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		adds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semgraph_triples_added_total",
			Help: "Total number of triples added to the store.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semgraph_triples_removed_total",
			Help: "Total number of triples removed from the store.",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "semgraph_triples",
			Help: "Current number of triples in the store.",
		}),
	}

	for _, c := range []prometheus.Collector{m.adds, m.removes, m.size} {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("register store metric: %w", err)
		}
	}
	return m, nil
}

func (m *storeMetrics) recordAdd() {
	if m != nil {
		m.adds.Inc()
	}
}

func (m *storeMetrics) recordRemove() {
	if m != nil {
		m.removes.Inc()
	}
}

func (m *storeMetrics) updateSize(size int) {
	if m != nil {
		m.size.Set(float64(size))
	}
}
