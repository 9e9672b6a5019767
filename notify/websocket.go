package notify

import (
	"context"
	"log/slog"

	"github.com/SINTEF/sensapp-sub001/metric"
	"github.com/SINTEF/sensapp-sub001/topics"
)

// WebSocketStrategy pushes the notification payload to every live socket
// identified by the subscription's topic id. A topic with no connected
// clients is a quiet no-op.
type WebSocketStrategy struct {
	topics  *topics.Registry
	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewWebSocketStrategy creates the websocket delivery strategy.
func NewWebSocketStrategy(registry *topics.Registry, logger *slog.Logger, metrics *metric.Metrics) *WebSocketStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketStrategy{
		topics:  registry,
		logger:  logger,
		metrics: metrics,
	}
}

// Deliver implements Strategy.
func (s *WebSocketStrategy) Deliver(ctx context.Context, sub Subscription, payload []byte) error {
	delivered := s.topics.Deliver(sub.TopicID, payload)
	if delivered == 0 {
		s.logger.Debug("no live clients for topic",
			"sensor_id", sub.SensorID,
			"topic_id", sub.TopicID)
		return nil
	}

	if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues(string(ProtocolWebSocket)).
			Add(float64(delivered))
	}
	return nil
}
