package notify

import (
	"context"
)

// Strategy delivers one notification payload according to a
// subscription. Implementations attempt every target independently and
// report only a summary error; partial failure never aborts the
// remaining targets.
type Strategy interface {
	// Deliver sends payload to the subscription's targets. The returned
	// error is informational; callers log it and move on.
	Deliver(ctx context.Context, sub Subscription, payload []byte) error
}

// strategyFor maps a subscription protocol to its strategy. The zero
// protocol means http.
func strategyFor(p Protocol, httpStrategy, wsStrategy Strategy) Strategy {
	if p == ProtocolWebSocket {
		return wsStrategy
	}
	return httpStrategy
}
