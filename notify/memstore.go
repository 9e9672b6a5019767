package notify

import (
	"context"
	"sync"

	"github.com/SINTEF/sensapp-sub001/errors"
)

// MemoryStore is an in-memory Store. It backs tests and single-process
// deployments that do not run NATS.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]Subscription
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[string]Subscription),
	}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, sensorID string) (Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[sensorID]
	if !ok {
		return Subscription{}, errors.ErrSubscriptionNotFound
	}
	return sub, nil
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[sub.SensorID] = sub
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, sensorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[sensorID]; !ok {
		return errors.ErrSubscriptionNotFound
	}
	delete(m.subs, sensorID)
	return nil
}
