package cache

import (
	"context"
	"sync"
	"time"
)

// ttlEntry represents an entry in the TTL cache.
type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *ttlEntry[V]) isExpired() bool {
	return timeNow().After(e.expiresAt)
}

// ttlCache is a thread-safe cache that evicts entries after a fixed TTL.
// A background goroutine sweeps expired entries on cleanupInterval.
type ttlCache[V any] struct {
	mu              sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
	items           map[string]*ttlEntry[V]
	rec             *recorder

	shutdown  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newTTLCache[V any](
	ctx context.Context, ttl, cleanupInterval time.Duration, opts *cacheOptions[V],
) (*ttlCache[V], error) {
	rec, err := newRecorder(opts.metricsReg, opts.metricsPrefix)
	if err != nil {
		return nil, err
	}

	c := &ttlCache[V]{
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		items:           make(map[string]*ttlEntry[V]),
		rec:             rec,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
	}

	go c.cleanupLoop(ctx)

	return c, nil
}

// Get retrieves a value by key, treating expired entries as misses.
func (c *ttlCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	entry, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || entry.isExpired() {
		if exists {
			// Evict lazily on read
			c.evictExpired(key)
		}
		var zero V
		c.rec.miss()
		return zero, false
	}

	c.rec.hit()
	return entry.value, true
}

// evictExpired removes key if it is still present and still expired.
func (c *ttlCache[V]) evictExpired(key string) {
	c.mu.Lock()
	entry, exists := c.items[key]
	if exists && entry.isExpired() {
		delete(c.items, key)
		c.rec.eviction()
		c.rec.resize(len(c.items))
	}
	c.mu.Unlock()
}

// Set stores a value with a fresh TTL.
func (c *ttlCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	_, exists := c.items[key]
	c.items[key] = &ttlEntry[V]{value: value, expiresAt: timeNow().Add(c.ttl)}
	size := len(c.items)
	c.mu.Unlock()

	c.rec.set(size)
	return !exists, nil
}

// Delete removes an entry by key.
func (c *ttlCache[V]) Delete(key string) (bool, error) {
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

// Size returns the number of entries, including not-yet-swept expired ones.
func (c *ttlCache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics.
func (c *ttlCache[V]) Stats() *Statistics {
	return c.rec.stats
}

// Close stops the background cleanup goroutine.
func (c *ttlCache[V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.shutdown)
		<-c.done
	})
	return nil
}

// cleanupLoop periodically sweeps expired entries until Close or context
// cancellation.
func (c *ttlCache[V]) cleanupLoop(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes all expired entries in one pass.
func (c *ttlCache[V]) sweep() {
	c.mu.Lock()
	for key, entry := range c.items {
		if entry.isExpired() {
			delete(c.items, key)
			c.rec.eviction()
		}
	}
	size := len(c.items)
	c.mu.Unlock()

	c.rec.resize(size)
}
