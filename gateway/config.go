package gateway

import (
	"github.com/SINTEF/sensapp-sub001/errors"
)

// Config holds configuration for the ingest gateway.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr" yaml:"addr"`

	// MaxRequestSize bounds the accepted request body in bytes.
	MaxRequestSize int64 `json:"max_request_size" yaml:"max_request_size"`

	// RateLimit caps accepted dispatch requests per second. Zero
	// disables limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`

	// RateBurst is the burst allowance above RateLimit.
	RateBurst int `json:"rate_burst" yaml:"rate_burst"`

	// ReadTimeout and WriteTimeout bound request handling in seconds.
	ReadTimeout  int `json:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout int `json:"write_timeout" yaml:"write_timeout"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "addr is required")
	}
	if c.MaxRequestSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_request_size must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"rate_limit must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// DefaultConfig returns default gateway configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxRequestSize: 1024 * 1024,
		RateLimit:      0,
		RateBurst:      16,
		ReadTimeout:    15,
		WriteTimeout:   30,
	}
}
