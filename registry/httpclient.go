package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/pkg/retry"
)

// ClientConfig holds configuration for the HTTP registry client.
type ClientConfig struct {
	// BaseURL is the registry service root, e.g. "http://registry:8090".
	// Sensor lookups go to BaseURL + "/sensors/{id}".
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds a single lookup request in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`

	// RetryCount is the number of additional attempts after the first.
	RetryCount int `json:"retry_count" yaml:"retry_count"`
}

// Validate checks the configuration for errors.
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ClientConfig", "Validate", "base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return errors.WrapInvalid(err, "ClientConfig", "Validate", "invalid base_url format")
	}
	if c.Timeout < 0 || c.Timeout > 300 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ClientConfig", "Validate",
			"timeout must be between 0 and 300 seconds")
	}
	if c.RetryCount < 0 || c.RetryCount > 10 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ClientConfig", "Validate",
			"retry_count must be between 0 and 10")
	}
	return nil
}

// DefaultClientConfig returns default configuration for the registry client.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "http://localhost:8090",
		Timeout:    5,
		RetryCount: 2,
	}
}

// Client is an HTTP implementation of Registry backed by the external
// sensor registry service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient creates a registry client from configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
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

// Lookup fetches the backend binding for sensorID from the registry
// service. Unknown sensors are not retried; transport failures are retried
// with exponential backoff up to the configured attempt count.
func (c *Client) Lookup(ctx context.Context, sensorID string) (Binding, error) {
	var binding Binding
	err := retry.Do(ctx, c.retryCfg, func() error {
		b, err := c.lookupOnce(ctx, sensorID)
		if err != nil {
			return err
		}
		binding = b
		return nil
	})
	if err != nil {
		return Binding{}, err
	}
	return binding, nil
}

func (c *Client) lookupOnce(ctx context.Context, sensorID string) (Binding, error) {
	endpoint := c.baseURL + "/sensors/" + url.PathEscape(sensorID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Binding{}, retry.NonRetryable(
			errors.WrapInvalid(err, "Client", "Lookup", "build request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Binding{}, errors.WrapTransient(err, "Client", "Lookup", "registry request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Binding{}, retry.NonRetryable(
			errors.WrapInvalid(errors.ErrUnknownSensor, "Client", "Lookup",
				fmt.Sprintf("sensor %q not registered", sensorID)))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Binding{}, errors.WrapTransient(errors.ErrBackendLookupFailed, "Client", "Lookup",
			fmt.Sprintf("registry returned HTTP %d", resp.StatusCode))
	}

	var binding Binding
	if err := json.NewDecoder(resp.Body).Decode(&binding); err != nil {
		return Binding{}, retry.NonRetryable(
			errors.WrapInvalid(errors.ErrBackendLookupFailed, "Client", "Lookup",
				fmt.Sprintf("malformed registry response: %v", err)))
	}

	if binding.DataURL == "" || binding.BackendKind == "" {
		return Binding{}, retry.NonRetryable(
			errors.WrapInvalid(errors.ErrBackendLookupFailed, "Client", "Lookup",
				"registry response missing data_url or backend_kind"))
	}

	return binding, nil
}
