// Package cache provides generic, thread-safe cache implementations.
//
// Two cache types are offered:
//   - Simple: no eviction policy (stores items until deleted or cleared)
//   - LRU: least-recently-used eviction bounded by a maximum size
//
// All caches collect hit/miss statistics; Prometheus export is optional and
// attached via functional options.
package cache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semgraph/errors"
)

// Cache is the interface satisfied by all cache implementations.
// The cache is parameterized by value type V for type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was
	// created, false if an existing one was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns a slice of all keys currently in the cache.
	Keys() []string

	// Stats returns the cache statistics.
	Stats() *Statistics
}

// EvictCallback is called when an entry is evicted from an LRU cache.
type EvictCallback[V any] func(key string, value V)

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

type cacheOptions[V any] struct {
	registerer    prometheus.Registerer
	metricsPrefix string
	evictCallback EvictCallback[V]
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registerer is nil or prefix is empty, the option is ignored.
func WithMetrics[V any](registerer prometheus.Registerer, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registerer != nil && prefix != "" {
			opts.registerer = registerer
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback invoked with each evicted entry.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}

func (o *cacheOptions[V]) buildMetrics() (*cacheMetrics, error) {
	if o.registerer == nil || o.metricsPrefix == "" {
		return nil, nil
	}
	return newCacheMetrics(o.registerer, o.metricsPrefix)
}

func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
