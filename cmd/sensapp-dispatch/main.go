// Package main implements the entry point for the SensApp dispatch
// service: it ingests sensor telemetry envelopes, routes canonical
// records to per-sensor storage backends and fans the data out to
// subscribed listeners.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/SINTEF/sensapp-sub001/backend"
	"github.com/SINTEF/sensapp-sub001/config"
	"github.com/SINTEF/sensapp-sub001/dispatch"
	"github.com/SINTEF/sensapp-sub001/gateway"
	"github.com/SINTEF/sensapp-sub001/metric"
	"github.com/SINTEF/sensapp-sub001/natsclient"
	"github.com/SINTEF/sensapp-sub001/notify"
	"github.com/SINTEF/sensapp-sub001/notify/natskv"
	"github.com/SINTEF/sensapp-sub001/pkg/cache"
	"github.com/SINTEF/sensapp-sub001/registry"
	"github.com/SINTEF/sensapp-sub001/topics"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "sensapp-dispatch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cliCfg.LogLevel != "" {
		cfg.Log.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Log.Format = cliCfg.LogFormat
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		logger.Info("configuration is valid", "config_path", cliCfg.ConfigPath)
		return nil
	}

	logger.Info("starting sensor telemetry dispatch",
		"version", Version,
		"config_path", cliCfg.ConfigPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runService(ctx, cfg, logger, cliCfg.ShutdownTimeout)
}

func runService(ctx context.Context, cfg *config.Config, logger *slog.Logger, shutdownTimeout time.Duration) error {
	metricsRegistry := metric.NewMetricsRegistry()
	metrics := metricsRegistry.CoreMetrics()

	// Registry binding cache. The simple strategy keeps bindings for the
	// process lifetime; switch the config to ttl when rebinding sensors
	// at runtime matters.
	bindings, err := cache.New[registry.Binding](ctx, cfg.BindingCache,
		cache.WithMetrics[registry.Binding](metricsRegistry, "binding_cache"))
	if err != nil {
		return fmt.Errorf("create binding cache: %w", err)
	}
	defer bindings.Close()

	registryClient, err := registry.NewClient(cfg.Registry)
	if err != nil {
		return fmt.Errorf("create registry client: %w", err)
	}
	resolver := registry.NewBindingCache(registryClient, bindings)

	store, err := backend.NewHTTPStore(cfg.Backend)
	if err != nil {
		return fmt.Errorf("create backend store: %w", err)
	}

	// Subscription store: JetStream KV when NATS is configured, process
	// memory otherwise.
	var subStore notify.Store
	if cfg.NATS.Enabled {
		natsClient, err := natsclient.NewClient(cfg.NATS.Config, logger)
		if err != nil {
			return fmt.Errorf("create nats client: %w", err)
		}
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer natsClient.Close()

		bucket, err := natsClient.KeyValue(ctx, cfg.NATS.Bucket)
		if err != nil {
			return fmt.Errorf("open subscription bucket: %w", err)
		}
		subStore = natskv.NewStore(bucket)
	} else {
		logger.Warn("nats disabled, subscriptions are process-local")
		subStore = notify.NewMemoryStore()
	}

	topicRegistry := topics.NewRegistry(topics.WithMetrics(metrics))

	httpStrategy := notify.NewHTTPStrategy(cfg.NotifyHTTP, logger, metrics)
	wsStrategy := notify.NewWebSocketStrategy(topicRegistry, logger, metrics)
	notifier := notify.NewNotifier(cfg.Notifier, subStore, httpStrategy, wsStrategy, logger)
	if err := notifier.Start(ctx); err != nil {
		return fmt.Errorf("start notifier: %w", err)
	}
	defer func() { _ = notifier.Stop(shutdownTimeout) }()

	router := dispatch.NewRouter(cfg.Dispatch, resolver, store,
		dispatch.NotifierFunc(notifier.Notify),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(metrics))

	server, err := gateway.NewServer(cfg.Gateway, router, topicRegistry,
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	defer func() { _ = server.Stop(shutdownTimeout) }()

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() { _ = metricsServer.Stop(shutdownTimeout) }()
	}

	logger.Info("service ready",
		"gateway_addr", cfg.Gateway.Addr,
		"metrics_enabled", cfg.Metrics.Enabled)

	<-ctx.Done()
	logger.Info("shutdown requested", "timeout", shutdownTimeout)
	return nil
}
