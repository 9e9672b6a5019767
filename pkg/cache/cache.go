// Package cache provides generic, thread-safe cache implementations.
//
// Two strategies are offered:
//   - SimpleCache: no eviction, entries live until deleted (process lifetime)
//   - TTLCache: time-to-live eviction with background cleanup
//
// All implementations are safe for concurrent use, collect statistics, and
// can optionally export Prometheus metrics via functional options.
package cache

import (
	"context"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/metric"
)

// Cache is the generic cache contract, parameterized by value type V.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found.
	Get(key string) (V, bool)

	// Set stores a value under key. Returns true if a new entry was created,
	// false if an existing one was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Size returns the current number of entries.
	Size() int

	// Stats returns cache statistics.
	Stats() *Statistics

	// Close releases any resources (background goroutines).
	Close() error
}

// New creates a cache according to Config. The context bounds the lifetime
// of background cleanup goroutines for TTL caches.
func New[V any](ctx context.Context, cfg Config, opts ...Option[V]) (Cache[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts...)

	switch cfg.Strategy {
	case StrategyTTL:
		return newTTLCache[V](ctx, cfg.TTL, cfg.CleanupInterval, options)
	default:
		return newSimpleCache[V](options)
	}
}

// validateKey rejects keys the cache cannot store.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}

// recorder couples in-process statistics with optional Prometheus export so
// both cache implementations update them through a single call site.
type recorder struct {
	stats   *Statistics
	metrics *cacheMetrics
}

func newRecorder(reg *metric.MetricsRegistry, prefix string) (*recorder, error) {
	r := &recorder{stats: NewStatistics()}
	if reg != nil && prefix != "" {
		m, err := newCacheMetrics(reg, prefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "newRecorder", "metrics registration")
		}
		r.metrics = m
	}
	return r, nil
}

func (r *recorder) hit() {
	r.stats.Hit()
	if r.metrics != nil {
		r.metrics.recordHit()
	}
}

func (r *recorder) miss() {
	r.stats.Miss()
	if r.metrics != nil {
		r.metrics.recordMiss()
	}
}

func (r *recorder) set(size int) {
	r.stats.Set()
	r.resize(size)
	if r.metrics != nil {
		r.metrics.recordSet()
	}
}

func (r *recorder) delete(size int) {
	r.stats.Delete()
	r.resize(size)
	if r.metrics != nil {
		r.metrics.recordDelete()
	}
}

func (r *recorder) eviction() {
	r.stats.Eviction()
	if r.metrics != nil {
		r.metrics.recordEviction()
	}
}

func (r *recorder) resize(size int) {
	r.stats.UpdateSize(int64(size))
	if r.metrics != nil {
		r.metrics.updateSize(size)
	}
}

// timeNow is stubbed in tests.
var timeNow = time.Now
