package cache

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics exposes cache statistics as Prometheus metrics.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

func newCacheMetrics(registerer prometheus.Registerer, prefix string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "semgraph_cache_hits_total",
			Help:        "Total number of cache hits.",
			ConstLabels: prometheus.Labels{"cache": prefix},
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "semgraph_cache_misses_total",
			Help:        "Total number of cache misses.",
			ConstLabels: prometheus.Labels{"cache": prefix},
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "semgraph_cache_sets_total",
			Help:        "Total number of cache set operations.",
			ConstLabels: prometheus.Labels{"cache": prefix},
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "semgraph_cache_evictions_total",
			Help:        "Total number of cache evictions.",
			ConstLabels: prometheus.Labels{"cache": prefix},
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "semgraph_cache_entries",
			Help:        "Current number of cached entries.",
			ConstLabels: prometheus.Labels{"cache": prefix},
		}),
	}

	collectors := []prometheus.Collector{m.hits, m.misses, m.sets, m.evictions, m.size}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, fmt.Errorf("register cache metric: %w", err)
		}
	}
	return m, nil
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) recordSet() {
	if m != nil {
		m.sets.Inc()
	}
}

func (m *cacheMetrics) recordEviction() {
	if m != nil {
		m.evictions.Inc()
	}
}

func (m *cacheMetrics) updateSize(size int) {
	if m != nil {
		m.size.Set(float64(size))
	}
}
