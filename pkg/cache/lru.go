package cache

import (
	"container/list"
	"sync"

	"github.com/c360/semgraph/errors"
)

// lruCache evicts the least recently used entry once maxSize is reached.
type lruCache[V any] struct {
	mu       sync.Mutex
	maxSize  int
	order    *list.List // front = most recently used
	elements map[string]*list.Element
	stats    *Statistics
	metrics  *cacheMetrics
	evictFn  EvictCallback[V]
}

type lruEntry[V any] struct {
	key   string
	value V
}

// NewLRU creates a cache bounded to maxSize entries with least-recently-used
// eviction.
func NewLRU[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	if maxSize <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewLRU", "maxSize must be positive")
	}

	opts := applyOptions(options...)
	metrics, err := opts.buildMetrics()
	if err != nil {
		return nil, errors.WrapTransient(err, "cache", "NewLRU", "metrics registration")
	}

	return &lruCache[V]{
		maxSize:  maxSize,
		order:    list.New(),
		elements: make(map[string]*list.Element),
		stats:    NewStatistics(),
		metrics:  metrics,
		evictFn:  opts.evictCallback,
	}, nil
}

func (c *lruCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	elem, exists := c.elements[key]
	if exists {
		c.order.MoveToFront(elem)
	}
	c.mu.Unlock()

	if !exists {
		c.stats.Miss()
		c.metrics.recordMiss()
		var zero V
		return zero, false
	}

	c.stats.Hit()
	c.metrics.recordHit()
	return elem.Value.(*lruEntry[V]).value, true
}

func (c *lruCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	var evicted *lruEntry[V]

	c.mu.Lock()
	elem, exists := c.elements[key]
	if exists {
		elem.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(elem)
	} else {
		c.elements[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
		if c.order.Len() > c.maxSize {
			oldest := c.order.Back()
			if oldest != nil {
				evicted = oldest.Value.(*lruEntry[V])
				c.order.Remove(oldest)
				delete(c.elements, evicted.key)
			}
		}
	}
	size := c.order.Len()
	c.mu.Unlock()

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	c.metrics.recordSet()
	c.metrics.updateSize(size)

	if evicted != nil {
		c.stats.Eviction()
		c.metrics.recordEviction()
		if c.evictFn != nil {
			c.evictFn(evicted.key, evicted.value)
		}
	}

	return !exists, nil
}

func (c *lruCache[V]) Delete(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	elem, exists := c.elements[key]
	if exists {
		c.order.Remove(elem)
		delete(c.elements, key)
	}
	size := c.order.Len()
	c.mu.Unlock()

	if exists {
		c.stats.Delete()
	}
	c.stats.UpdateSize(int64(size))
	c.metrics.updateSize(size)

	return exists, nil
}

func (c *lruCache[V]) Clear() error {
	c.mu.Lock()
	c.order.Init()
	c.elements = make(map[string]*list.Element)
	c.mu.Unlock()

	c.stats.UpdateSize(0)
	c.metrics.updateSize(0)
	return nil
}

func (c *lruCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *lruCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.elements))
	for key := range c.elements {
		keys = append(keys, key)
	}
	return keys
}

func (c *lruCache[V]) Stats() *Statistics {
	return c.stats
}
