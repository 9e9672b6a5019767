package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/pkg/retry"
	"github.com/SINTEF/sensapp-sub001/registry"
	"github.com/SINTEF/sensapp-sub001/senml"
)

// StoreConfig holds configuration for the HTTP raw store client.
type StoreConfig struct {
	// Timeout bounds a single push request in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`

	// RetryCount is the number of additional attempts after the first.
	RetryCount int `json:"retry_count" yaml:"retry_count"`
}

// Validate checks the configuration for errors.
func (c *StoreConfig) Validate() error {
	if c.Timeout < 0 || c.Timeout > 300 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreConfig", "Validate",
			"timeout must be between 0 and 300 seconds")
	}
	if c.RetryCount < 0 || c.RetryCount > 10 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "StoreConfig", "Validate",
			"retry_count must be between 0 and 10")
	}
	return nil
}

// DefaultStoreConfig returns default configuration for the raw store client.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Timeout:    5,
		RetryCount: 2,
	}
}

// HTTPStore implements Store against raw data store endpoints. Records
// are re-encoded as a canonical envelope and PUT to the binding's data
// URL.
type HTTPStore struct {
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewHTTPStore creates a raw store client from configuration.
func NewHTTPStore(cfg StoreConfig) (*HTTPStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HTTPStore{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:  cfg.RetryCount + 1,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
			AddJitter:    true,
		},
	}, nil
}

// Push implements Store.
func (s *HTTPStore) Push(ctx context.Context, binding registry.Binding, records []senml.Record) error {
	if binding.BackendKind != KindRaw {
		return errors.WrapFatal(errors.ErrUnsupportedBackendKind, "HTTPStore", "Push",
			fmt.Sprintf("backend kind %q", binding.BackendKind))
	}
	if len(records) == 0 {
		return nil
	}

	payload, err := senml.EncodeJSON(senml.EncodeRecords(records))
	if err != nil {
		return errors.WrapInvalid(err, "HTTPStore", "Push", "encode records")
	}

	return retry.Do(ctx, s.retryCfg, func() error {
		return s.pushOnce(ctx, binding.DataURL, payload)
	})
}

func (s *HTTPStore) pushOnce(ctx context.Context, dataURL string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dataURL, bytes.NewReader(payload))
	if err != nil {
		return retry.NonRetryable(
			errors.WrapInvalid(err, "HTTPStore", "Push", "build request"))
	}
	req.Header.Set("Content-Type", "application/senml+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.WrapTransient(errors.ErrBackendUnreachable, "HTTPStore", "Push",
			fmt.Sprintf("store request: %v", err))
	}
	defer resp.Body.Close()

	// Drain to reuse the connection.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		wrapped := errors.WrapTransient(errors.ErrBackendUnreachable, "HTTPStore", "Push",
			fmt.Sprintf("store returned HTTP %d", resp.StatusCode))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not improve on retry.
			return retry.NonRetryable(wrapped)
		}
		return wrapped
	}

	return nil
}
