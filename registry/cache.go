package registry

import (
	"context"

	"github.com/SINTEF/sensapp-sub001/pkg/cache"
)

// BindingCache memoizes registry lookups. A miss populates the cache
// through the wrapped Registry; a hit answers without a network round
// trip. Failed lookups cache nothing, so the next dispatch for that
// sensor retries the registry.
//
// Concurrent misses for the same sensor may each hit the registry;
// last writer wins, which is harmless because bindings are immutable
// once created.
type BindingCache struct {
	source   Registry
	bindings cache.Cache[Binding]
}

// NewBindingCache wraps source with the given cache. The cache is owned
// by the caller (typically created once in cmd wiring) so its strategy
// and lifetime stay configurable.
func NewBindingCache(source Registry, bindings cache.Cache[Binding]) *BindingCache {
	return &BindingCache{
		source:   source,
		bindings: bindings,
	}
}

// Lookup implements Registry.
func (bc *BindingCache) Lookup(ctx context.Context, sensorID string) (Binding, error) {
	if binding, ok := bc.bindings.Get(sensorID); ok {
		return binding, nil
	}

	binding, err := bc.source.Lookup(ctx, sensorID)
	if err != nil {
		return Binding{}, err
	}

	if _, err := bc.bindings.Set(sensorID, binding); err != nil {
		// Cache write failure only costs a future round trip.
		return binding, nil
	}
	return binding, nil
}

// Invalidate drops the cached binding for sensorID, forcing the next
// lookup back to the registry.
func (bc *BindingCache) Invalidate(sensorID string) {
	_, _ = bc.bindings.Delete(sensorID)
}
