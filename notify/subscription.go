package notify

import (
	"context"

	"github.com/SINTEF/sensapp-sub001/errors"
)

// Protocol selects the delivery transport for a subscription.
type Protocol string

const (
	// ProtocolHTTP POSTs the payload to each hook URL.
	ProtocolHTTP Protocol = "http"

	// ProtocolWebSocket pushes the payload to live sockets identified by
	// the subscription's topic id.
	ProtocolWebSocket Protocol = "websocket"
)

// Subscription registers listeners for one sensor id.
type Subscription struct {
	// SensorID is the unique subscription key.
	SensorID string `json:"sensor_id"`

	// Hooks are endpoint descriptors, in registration order. For the
	// http protocol each hook is a callback URL.
	Hooks []string `json:"hooks"`

	// Protocol selects the delivery transport. Empty means http.
	Protocol Protocol `json:"protocol,omitempty"`

	// TopicID names the WebSocket topic; used only by the websocket
	// protocol.
	TopicID string `json:"topic_id,omitempty"`
}

// Validate checks the subscription for errors.
func (s *Subscription) Validate() error {
	if s.SensorID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "Subscription", "Validate",
			"sensor_id is required")
	}
	switch s.Protocol {
	case "", ProtocolHTTP:
		if len(s.Hooks) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidData, "Subscription", "Validate",
				"http subscription requires at least one hook")
		}
	case ProtocolWebSocket:
		if s.TopicID == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "Subscription", "Validate",
				"websocket subscription requires a topic_id")
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidData, "Subscription", "Validate",
			"protocol must be http or websocket")
	}
	return nil
}

// Store is the external subscription store the fan-out reads. The core
// only ever calls Get; the mutating operations exist for the management
// surface that maintains subscriptions.
type Store interface {
	// Get returns the subscription for sensorID, or
	// errors.ErrSubscriptionNotFound when none is registered.
	Get(ctx context.Context, sensorID string) (Subscription, error)

	// Put creates or replaces the subscription keyed by its SensorID.
	Put(ctx context.Context, sub Subscription) error

	// Delete removes the subscription for sensorID. Deleting an absent
	// subscription returns errors.ErrSubscriptionNotFound.
	Delete(ctx context.Context, sensorID string) error
}
