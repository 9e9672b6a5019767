// Package dispatch routes canonical sensor records to their backends.
package dispatch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SINTEF/sensapp-sub001/backend"
	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/metric"
	"github.com/SINTEF/sensapp-sub001/registry"
	"github.com/SINTEF/sensapp-sub001/senml"
)

// Notifier receives post-push fan-out requests. Implementations never
// block on delivery and never report failure to the router.
type Notifier interface {
	Notify(ctx context.Context, sensorID string, records []senml.Record)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, sensorID string, records []senml.Record)

// Notify calls the wrapped function.
func (f NotifierFunc) Notify(ctx context.Context, sensorID string, records []senml.Record) {
	f(ctx, sensorID, records)
}

// Config holds router configuration.
type Config struct {
	// MaxConcurrentSensors bounds the per-sensor fan-out within one
	// dispatch call. Zero means no limit.
	MaxConcurrentSensors int `json:"max_concurrent_sensors" yaml:"max_concurrent_sensors"`
}

// DefaultConfig returns default router configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentSensors: 16,
	}
}

// Router validates, canonicalizes and routes envelopes. One Router is
// shared by all inbound requests; it holds no per-call state.
type Router struct {
	resolver  registry.Registry
	store     backend.Store
	notifier  Notifier
	maxActive int
	logger    *slog.Logger
	metrics   *metric.Metrics
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics exports dispatch counters and timings.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(r *Router) {
		r.metrics = metrics
	}
}

// NewRouter creates a router. notifier may be nil when fan-out is
// disabled.
func NewRouter(cfg Config, resolver registry.Registry, store backend.Store, notifier Notifier, opts ...Option) *Router {
	r := &Router{
		resolver:  resolver,
		store:     store,
		notifier:  notifier,
		maxActive: cfg.MaxConcurrentSensors,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// partition groups one sensor's records, in envelope order.
type partition struct {
	sensorID string
	records  []senml.Record
}

// Dispatch validates and canonicalizes env, then routes each sensor's
// records to its backend. The returned slice lists the sensor ids that
// could not be routed, sorted; it is empty when every sensor succeeded.
// Only a compliance failure yields an error, and it aborts before any
// side effect.
func (r *Router) Dispatch(ctx context.Context, env *senml.Envelope) ([]string, error) {
	start := time.Now()

	if err := senml.Check(env); err != nil {
		var verr *senml.ValidationError
		if r.metrics != nil && stderrors.As(err, &verr) {
			r.metrics.EnvelopesRejected.WithLabelValues(string(verr.Code)).Inc()
		}
		return nil, err
	}

	partitions := partitionBySensor(senml.Canonicalize(env))

	group, groupCtx := errgroup.WithContext(ctx)
	if r.maxActive > 0 {
		group.SetLimit(r.maxActive)
	}

	failed := make(chan string, len(partitions))
	for _, part := range partitions {
		part := part
		group.Go(func() error {
			if err := r.routeSensor(groupCtx, part); err != nil {
				r.logger.Warn("sensor routing failed",
					"sensor_id", part.sensorID,
					"records", len(part.records),
					"error", err)
				if r.metrics != nil {
					r.metrics.SensorsFailed.WithLabelValues(failureReason(err)).Inc()
				}
				failed <- part.sensorID
			}
			return nil
		})
	}
	// Workers never return errors; routing failures travel through the
	// failed channel so one sensor cannot cancel the others.
	_ = group.Wait()
	close(failed)

	ignored := make([]string, 0, len(partitions))
	for sensorID := range failed {
		ignored = append(ignored, sensorID)
	}
	sort.Strings(ignored)

	if r.metrics != nil {
		r.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}
	return ignored, nil
}

// routeSensor resolves, pushes and fans out one sensor's partition.
func (r *Router) routeSensor(ctx context.Context, part partition) error {
	binding, err := r.resolver.Lookup(ctx, part.sensorID)
	if err != nil {
		return err
	}

	if err := r.store.Push(ctx, binding, part.records); err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.RecordsDispatched.WithLabelValues(binding.BackendKind).
			Add(float64(len(part.records)))
	}

	// Fan-out strictly follows a successful push; its failures are the
	// notifier's to absorb.
	if r.notifier != nil {
		r.notifier.Notify(ctx, part.sensorID, part.records)
	}
	return nil
}

// partitionBySensor groups records by resolved name, keeping record
// order within a sensor and first-seen order across sensors.
func partitionBySensor(records []senml.Record) []partition {
	index := make(map[string]int, len(records))
	partitions := make([]partition, 0, len(records))

	for _, record := range records {
		i, ok := index[record.Name]
		if !ok {
			i = len(partitions)
			index[record.Name] = i
			partitions = append(partitions, partition{sensorID: record.Name})
		}
		partitions[i].records = append(partitions[i].records, record)
	}
	return partitions
}

// failureReason buckets a routing error for the failure counter.
func failureReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrUnknownSensor):
		return "unknown_sensor"
	case stderrors.Is(err, errors.ErrUnsupportedBackendKind):
		return "unsupported_backend_kind"
	case stderrors.Is(err, errors.ErrBackendUnreachable):
		return "backend_unreachable"
	case stderrors.Is(err, errors.ErrBackendLookupFailed):
		return "lookup_failed"
	default:
		return "other"
	}
}
