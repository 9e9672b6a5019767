package notify

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/pkg/worker"
	"github.com/SINTEF/sensapp-sub001/senml"
)

// delivery is one queued fan-out job.
type delivery struct {
	sub     Subscription
	payload []byte
}

// NotifierConfig holds configuration for the notifier.
type NotifierConfig struct {
	// Workers is the number of concurrent delivery workers.
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize bounds the pending delivery queue. A full queue drops
	// new notifications rather than blocking dispatch.
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// DefaultNotifierConfig returns default notifier configuration.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		Workers:   4,
		QueueSize: 256,
	}
}

// Notifier looks up subscriptions and hands deliveries to a worker pool.
// Notify never blocks on the network and never returns delivery
// failures; the dispatch result is decided before fan-out begins.
type Notifier struct {
	store        Store
	httpStrategy Strategy
	wsStrategy   Strategy
	pool         *worker.Pool[delivery]
	logger       *slog.Logger
}

// NewNotifier creates a notifier delivering through the given strategies.
func NewNotifier(cfg NotifierConfig, store Store, httpStrategy, wsStrategy Strategy, logger *slog.Logger) *Notifier {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultNotifierConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultNotifierConfig().QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &Notifier{
		store:        store,
		httpStrategy: httpStrategy,
		wsStrategy:   wsStrategy,
		logger:       logger,
	}
	n.pool = worker.NewPool(cfg.Workers, cfg.QueueSize, n.process)
	return n
}

// Start launches the delivery workers.
func (n *Notifier) Start(ctx context.Context) error {
	return n.pool.Start(ctx)
}

// Stop drains in-flight deliveries, waiting up to timeout.
func (n *Notifier) Stop(timeout time.Duration) error {
	return n.pool.Stop(timeout)
}

// Notify queues fan-out of records for sensorID. A sensor without a
// subscription is a silent no-op. Queue overflow and delivery failures
// are logged and absorbed.
func (n *Notifier) Notify(ctx context.Context, sensorID string, records []senml.Record) {
	sub, err := n.store.Get(ctx, sensorID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrSubscriptionNotFound) {
			n.logger.Warn("subscription lookup failed",
				"sensor_id", sensorID,
				"error", err)
		}
		return
	}

	payload, err := senml.EncodeJSON(senml.EncodeRecords(records))
	if err != nil {
		n.logger.Error("encode notification payload",
			"sensor_id", sensorID,
			"error", err)
		return
	}

	if err := n.pool.Submit(delivery{sub: sub, payload: payload}); err != nil {
		n.logger.Warn("notification dropped",
			"sensor_id", sensorID,
			"error", err)
	}
}

func (n *Notifier) process(ctx context.Context, d delivery) error {
	strategy := strategyFor(d.sub.Protocol, n.httpStrategy, n.wsStrategy)
	if err := strategy.Deliver(ctx, d.sub, d.payload); err != nil {
		// Fire-and-forget: the failure ends here.
		n.logger.Warn("notification delivery failed",
			"sensor_id", d.sub.SensorID,
			"protocol", string(d.sub.Protocol),
			"error", err)
	}
	return nil
}
