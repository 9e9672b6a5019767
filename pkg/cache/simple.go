package cache

import (
	"sync"
)

// simpleCache holds entries for the process lifetime; nothing is evicted
// unless explicitly deleted.
type simpleCache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
	rec   *recorder
}

func newSimpleCache[V any](opts *cacheOptions[V]) (*simpleCache[V], error) {
	rec, err := newRecorder(opts.metricsReg, opts.metricsPrefix)
	if err != nil {
		return nil, err
	}
	return &simpleCache[V]{items: make(map[string]V), rec: rec}, nil
}

func (c *simpleCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	value, exists := c.items[key]
	c.mu.RUnlock()

	if exists {
		c.rec.hit()
	} else {
		c.rec.miss()
	}
	return value, exists
}

func (c *simpleCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	_, exists := c.items[key]
	c.items[key] = value
	size := len(c.items)
	c.mu.Unlock()

	c.rec.set(size)
	return !exists, nil
}

func (c *simpleCache[V]) Delete(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	_, exists := c.items[key]
	delete(c.items, key)
	size := len(c.items)
	c.mu.Unlock()

	if exists {
		c.rec.delete(size)
	}
	return exists, nil
}

func (c *simpleCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *simpleCache[V]) Stats() *Statistics {
	return c.rec.stats
}

func (c *simpleCache[V]) Close() error {
	return nil
}
