// Package natskv stores subscriptions in a NATS JetStream KV bucket.
package natskv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/notify"
)

// DefaultBucket is the KV bucket name used when none is configured.
const DefaultBucket = "sensapp-subscriptions"

// bucket is the slice of jetstream.KeyValue the store uses. Narrowed so
// tests can fake it without a running NATS server.
type bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

var _ bucket = (jetstream.KeyValue)(nil)

// Store implements notify.Store on a JetStream KV bucket. One key per
// sensor id, value is the JSON-encoded subscription.
type Store struct {
	bucket  bucket
	timeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each KV operation.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// NewStore wraps a KV bucket as a subscription store.
func NewStore(kv jetstream.KeyValue, opts ...Option) *Store {
	return newStore(kv, opts...)
}

func newStore(b bucket, opts ...Option) *Store {
	s := &Store{
		bucket:  b,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements notify.Store.
func (s *Store) Get(ctx context.Context, sensorID string) (notify.Subscription, error) {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	entry, err := s.bucket.Get(ctx, encodeKey(sensorID))
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return notify.Subscription{}, errors.ErrSubscriptionNotFound
		}
		return notify.Subscription{}, errors.WrapTransient(err, "Store", "Get",
			fmt.Sprintf("kv get for sensor %q", sensorID))
	}

	var sub notify.Subscription
	if err := json.Unmarshal(entry.Value(), &sub); err != nil {
		return notify.Subscription{}, errors.WrapInvalid(err, "Store", "Get",
			fmt.Sprintf("decode subscription for sensor %q", sensorID))
	}
	return sub, nil
}

// Put implements notify.Store. Last writer wins; subscriptions have no
// concurrent-update semantics worth a CAS loop.
func (s *Store) Put(ctx context.Context, sub notify.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(sub)
	if err != nil {
		return errors.WrapInvalid(err, "Store", "Put", "encode subscription")
	}

	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	if _, err := s.bucket.Put(ctx, encodeKey(sub.SensorID), value); err != nil {
		return errors.WrapTransient(err, "Store", "Put",
			fmt.Sprintf("kv put for sensor %q", sub.SensorID))
	}
	return nil
}

// Delete implements notify.Store.
func (s *Store) Delete(ctx context.Context, sensorID string) error {
	ctx, cancel := s.applyTimeout(ctx)
	defer cancel()

	key := encodeKey(sensorID)

	// KV delete succeeds on absent keys, so existence is checked first
	// to honor the not-found contract.
	if _, err := s.bucket.Get(ctx, key); err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return errors.ErrSubscriptionNotFound
		}
		return errors.WrapTransient(err, "Store", "Delete",
			fmt.Sprintf("kv get for sensor %q", sensorID))
	}

	if err := s.bucket.Delete(ctx, key); err != nil {
		return errors.WrapTransient(err, "Store", "Delete",
			fmt.Sprintf("kv delete for sensor %q", sensorID))
	}
	return nil
}

func (s *Store) applyTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

// encodeKey maps a sensor id onto the KV key alphabet. Sensor ids carry
// path separators, which KV keys do not allow.
func encodeKey(sensorID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sensorID))
}
