// Package config loads and validates the application configuration.
//
// Configuration comes from an optional JSON or YAML file (chosen by
// extension), with a small set of environment overrides applied on top.
// Every section carries its own Validate; Load fails fast on the first
// invalid section.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SINTEF/sensapp-sub001/backend"
	"github.com/SINTEF/sensapp-sub001/dispatch"
	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/gateway"
	"github.com/SINTEF/sensapp-sub001/natsclient"
	"github.com/SINTEF/sensapp-sub001/notify"
	"github.com/SINTEF/sensapp-sub001/pkg/cache"
	"github.com/SINTEF/sensapp-sub001/registry"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "SENSAPP"

// NATSConfig wraps the client config with an enable switch and the
// subscription bucket name. NATS is optional; without it subscriptions
// live in process memory.
type NATSConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Bucket  string `json:"bucket"  yaml:"bucket"`

	natsclient.Config `json:",inline" yaml:",inline"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port"    yaml:"port"`
	Path    string `json:"path"    yaml:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level"`

	// Format is "json" or "text".
	Format string `json:"format" yaml:"format"`
}

// Config is the complete application configuration.
type Config struct {
	Gateway      gateway.Config            `json:"gateway"       yaml:"gateway"`
	Registry     registry.ClientConfig     `json:"registry"      yaml:"registry"`
	BindingCache cache.Config              `json:"binding_cache" yaml:"binding_cache"`
	Backend      backend.StoreConfig       `json:"backend"       yaml:"backend"`
	Dispatch     dispatch.Config           `json:"dispatch"      yaml:"dispatch"`
	Notifier     notify.NotifierConfig     `json:"notifier"      yaml:"notifier"`
	NotifyHTTP   notify.HTTPStrategyConfig `json:"notify_http"   yaml:"notify_http"`
	NATS         NATSConfig                `json:"nats"          yaml:"nats"`
	Metrics      MetricsConfig             `json:"metrics"       yaml:"metrics"`
	Log          LogConfig                 `json:"log"           yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Gateway:      gateway.DefaultConfig(),
		Registry:     registry.DefaultClientConfig(),
		BindingCache: cache.DefaultConfig(),
		Backend:      backend.DefaultStoreConfig(),
		Dispatch:     dispatch.DefaultConfig(),
		Notifier:     notify.DefaultNotifierConfig(),
		NotifyHTTP:   notify.DefaultHTTPStrategyConfig(),
		NATS: NATSConfig{
			Enabled: false,
			Bucket:  "sensapp-subscriptions",
			Config:  natsclient.DefaultConfig(),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the configuration file at path (empty means defaults only),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "config", "Load", "read config file")
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.WrapInvalid(err, "config", "Load", "parse YAML config")
			}
		case ".json":
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, errors.WrapInvalid(err, "config", "Load", "parse JSON config")
			}
		default:
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Load",
				fmt.Sprintf("unsupported config extension %q", filepath.Ext(path)))
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Gateway.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if err := c.BindingCache.Validate(); err != nil {
		return err
	}
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if c.NATS.Enabled {
		if err := c.NATS.Config.Validate(); err != nil {
			return err
		}
		if c.NATS.Bucket == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"nats.bucket is required when nats is enabled")
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"metrics.port must be a valid TCP port")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides. Only the
// knobs that differ between deployments of the same image are exposed.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(EnvPrefix + "_GATEWAY_ADDR"); val != "" {
		cfg.Gateway.Addr = val
	}
	if val := os.Getenv(EnvPrefix + "_REGISTRY_URL"); val != "" {
		cfg.Registry.BaseURL = val
	}
	if val := os.Getenv(EnvPrefix + "_NATS_URL"); val != "" {
		cfg.NATS.URL = val
		cfg.NATS.Enabled = true
	}
	if val := os.Getenv(EnvPrefix + "_NATS_BUCKET"); val != "" {
		cfg.NATS.Bucket = val
	}
	if val := os.Getenv(EnvPrefix + "_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if val := os.Getenv(EnvPrefix + "_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv(EnvPrefix + "_LOG_FORMAT"); val != "" {
		cfg.Log.Format = val
	}
}
