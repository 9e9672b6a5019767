package cache

import (
	"fmt"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
)

// Strategy defines the eviction strategy for the cache.
type Strategy string

const (
	// StrategySimple uses no eviction policy; entries live for the process
	// lifetime unless explicitly deleted.
	StrategySimple Strategy = "simple"

	// StrategyTTL evicts entries after a time-to-live.
	StrategyTTL Strategy = "ttl"
)

// Config contains configuration for cache creation.
type Config struct {
	// Strategy determines the eviction strategy.
	Strategy Strategy `json:"strategy" yaml:"strategy"`

	// TTL is the time-to-live for entries (TTL strategy only).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// CleanupInterval is how often background cleanup runs (TTL strategy only).
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:        StrategySimple,
		TTL:             5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategySimple, "":
		// No additional validation needed
	case StrategyTTL:
		if c.TTL <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidData, "cache", "Validate",
				fmt.Sprintf("ttl must be positive for TTL cache, got %v", c.TTL))
		}
		if c.CleanupInterval <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidData, "cache", "Validate",
				fmt.Sprintf("cleanup_interval must be positive for TTL cache, got %v", c.CleanupInterval))
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "Validate",
			fmt.Sprintf("unknown strategy %q", c.Strategy))
	}
	return nil
}
