// Package topics tracks live WebSocket connections by topic id so the
// websocket delivery strategy can push payloads to subscribed clients.
package topics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SINTEF/sensapp-sub001/metric"
)

// Conn is the subset of *websocket.Conn the registry needs. Narrowed for
// tests; production code passes gorilla connections directly.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// client tracks one registered connection.
type client struct {
	conn    Conn
	topicID string

	closed    atomic.Bool
	closeOnce sync.Once
	// The gorilla/websocket library panics on concurrent writes.
	writeMu sync.Mutex
}

// Registry is a concurrency-safe set of WebSocket connections keyed by
// topic id. Multiple connections may share a topic; a connection holds at
// most one topic at a time (a second identify replaces the first).
type Registry struct {
	mu      sync.RWMutex
	clients map[Conn]*client

	writeTimeout time.Duration
	metrics      *metric.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics exports the connected-client gauge to core metrics.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(r *Registry) {
		r.metrics = metrics
	}
}

// WithWriteTimeout bounds each outbound write.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		r.writeTimeout = timeout
	}
}

// NewRegistry creates an empty topic registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clients:      make(map[Conn]*client),
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identify registers conn under topicID. Re-identifying an already
// registered connection moves it to the new topic.
func (r *Registry) Identify(conn Conn, topicID string) {
	r.mu.Lock()
	existing, ok := r.clients[conn]
	if ok {
		existing.topicID = topicID
		r.mu.Unlock()
		return
	}
	r.clients[conn] = &client{conn: conn, topicID: topicID}
	count := len(r.clients)
	r.mu.Unlock()

	r.setGauge(count)
}

// Remove drops conn from the registry and closes it. Safe to call for
// connections that were never identified, and safe to call twice.
func (r *Registry) Remove(conn Conn) {
	r.mu.Lock()
	c, ok := r.clients[conn]
	if ok {
		delete(r.clients, conn)
	}
	count := len(r.clients)
	r.mu.Unlock()

	if !ok {
		return
	}

	c.closeOnce.Do(func() {
		c.closed.Store(true)
		_ = c.conn.Close()
	})
	r.setGauge(count)
}

// Deliver sends payload to every connection registered for topicID.
// Connections that fail the write are skipped and evicted; delivery to the
// remaining connections continues. Returns the number of successful writes.
func (r *Registry) Deliver(topicID string, payload []byte) int {
	r.mu.RLock()
	targets := make([]*client, 0, 4)
	for _, c := range r.clients {
		if c.topicID == topicID {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.closed.Load() {
			continue
		}
		if err := r.writeTo(c, payload); err != nil {
			r.Remove(c.conn)
			continue
		}
		delivered++
	}
	return delivered
}

// Size returns the number of registered connections.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// TopicSize returns the number of connections registered for topicID.
func (r *Registry) TopicSize(topicID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, c := range r.clients {
		if c.topicID == topicID {
			count++
		}
	}
	return count
}

// Close evicts and closes every registered connection.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := make([]*client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[Conn]*client)
	r.mu.Unlock()

	for _, c := range clients {
		c.closeOnce.Do(func() {
			c.closed.Store(true)
			_ = c.conn.Close()
		})
	}
	r.setGauge(0)
}

func (r *Registry) writeTo(c *client, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(r.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (r *Registry) setGauge(count int) {
	if r.metrics != nil {
		r.metrics.TopicClientsConnected.Set(float64(count))
	}
}
