// Package natsclient manages the NATS connection and JetStream KV
// buckets used by the subscription store.
package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/SINTEF/sensapp-sub001/errors"
)

// Config holds NATS connection configuration.
type Config struct {
	// URL is the NATS server URL, e.g. "nats://localhost:4222".
	URL string `json:"url" yaml:"url"`

	// Name identifies this client to the server.
	Name string `json:"name" yaml:"name"`

	// Timeout bounds connection establishment in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`

	// MaxReconnects limits automatic reconnection attempts; -1 means
	// unlimited.
	MaxReconnects int `json:"max_reconnects" yaml:"max_reconnects"`

	// ReconnectWait is the delay between reconnection attempts in
	// seconds.
	ReconnectWait int `json:"reconnect_wait" yaml:"reconnect_wait"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "url is required")
	}
	if c.Timeout < 0 || c.Timeout > 300 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"timeout must be between 0 and 300 seconds")
	}
	return nil
}

// DefaultConfig returns default NATS configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "sensapp-dispatch",
		Timeout:       5,
		MaxReconnects: -1,
		ReconnectWait: 2,
	}
}

// Client is a thin wrapper around a NATS connection with JetStream
// enabled. It exists so callers depend on one narrow surface instead of
// raw nats.go handles.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	conn   *nats.Conn
	js     jetstream.JetStream
	closed atomic.Bool
}

// NewClient creates an unconnected client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Connect establishes the NATS connection and initializes JetStream.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Client", "Connect", "check connection state")
	}

	timeout := time.Duration(c.cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	opts := []nats.Option{
		nats.Name(c.cfg.Name),
		nats.Timeout(timeout),
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(time.Duration(c.cfg.ReconnectWait) * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			c.logger.Info("nats reconnected", "url", conn.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(c.cfg.URL, opts...)
	if err != nil {
		return errors.WrapTransient(err, "Client", "Connect", "establish connection")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return errors.WrapFatal(err, "Client", "Connect", "initialize jetstream")
	}

	c.conn = conn
	c.js = js
	c.logger.Info("connected to nats", "url", c.cfg.URL)
	return nil
}

// KeyValue opens the named KV bucket, creating it when absent.
func (c *Client) KeyValue(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	c.mu.Lock()
	js := c.js
	c.mu.Unlock()

	if js == nil {
		return nil, errors.WrapFatal(errors.ErrNoConnection, "Client", "KeyValue", "jetstream not initialized")
	}

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "sensor subscriptions",
		History:     1,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "KeyValue",
			fmt.Sprintf("open bucket %q", bucket))
	}
	return kv, nil
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.conn.IsConnected()
}

// Close drains and closes the connection. Safe to call twice.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.js = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Drain(); err != nil {
		conn.Close()
	}
}
