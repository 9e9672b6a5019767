package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SINTEF/sensapp-sub001/errors"
	"github.com/SINTEF/sensapp-sub001/metric"
)

// HTTPStrategy POSTs the notification payload to every hook URL of a
// subscription. Hooks are independent: one unreachable hook does not
// stop delivery to the others.
type HTTPStrategy struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metric.Metrics
}

// HTTPStrategyConfig holds configuration for the HTTP delivery strategy.
type HTTPStrategyConfig struct {
	// Timeout bounds a single hook request in seconds.
	Timeout int `json:"timeout" yaml:"timeout"`
}

// DefaultHTTPStrategyConfig returns default configuration.
func DefaultHTTPStrategyConfig() HTTPStrategyConfig {
	return HTTPStrategyConfig{Timeout: 5}
}

// NewHTTPStrategy creates the HTTP delivery strategy.
func NewHTTPStrategy(cfg HTTPStrategyConfig, logger *slog.Logger, metrics *metric.Metrics) *HTTPStrategy {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPStrategy{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Deliver implements Strategy.
func (s *HTTPStrategy) Deliver(ctx context.Context, sub Subscription, payload []byte) error {
	failed := 0
	for _, hook := range sub.Hooks {
		if err := s.post(ctx, hook, payload); err != nil {
			failed++
			s.logger.Warn("notification hook failed",
				"sensor_id", sub.SensorID,
				"hook", hook,
				"error", err)
			if s.metrics != nil {
				s.metrics.NotificationFailures.WithLabelValues(string(ProtocolHTTP)).Inc()
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.NotificationsSent.WithLabelValues(string(ProtocolHTTP)).Inc()
		}
	}

	if failed > 0 {
		return errors.WrapTransient(
			fmt.Errorf("%d of %d hooks failed", failed, len(sub.Hooks)),
			"HTTPStrategy", "Deliver", "hook delivery")
	}
	return nil
}

func (s *HTTPStrategy) post(ctx context.Context, hook string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/senml+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
