package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the Prometheus namespace for all platform metrics.
const Namespace = "sensapp"

// Metrics contains all platform-level metrics for the dispatch core
type Metrics struct {
	// Ingestion metrics
	EnvelopesReceived *prometheus.CounterVec
	EnvelopesRejected *prometheus.CounterVec

	// Dispatch metrics
	RecordsDispatched *prometheus.CounterVec
	SensorsFailed     *prometheus.CounterVec
	DispatchDuration  prometheus.Histogram

	// Notification metrics
	NotificationsSent    *prometheus.CounterVec
	NotificationFailures *prometheus.CounterVec

	// WebSocket topic metrics
	TopicClientsConnected prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EnvelopesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "dispatch",
				Name:      "envelopes_received_total",
				Help:      "Total number of envelopes received for dispatch",
			},
			[]string{"encoding"},
		),

		EnvelopesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "dispatch",
				Name:      "envelopes_rejected_total",
				Help:      "Total number of envelopes rejected by the compliance checker",
			},
			[]string{"code"},
		),

		RecordsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "dispatch",
				Name:      "records_dispatched_total",
				Help:      "Total number of canonical records forwarded to backends",
			},
			[]string{"backend_kind"},
		),

		SensorsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "dispatch",
				Name:      "sensors_failed_total",
				Help:      "Total number of per-sensor routing failures",
			},
			[]string{"reason"},
		),

		DispatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "dispatch",
				Name:      "duration_seconds",
				Help:      "End-to-end duration of dispatch calls",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),

		NotificationsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "notify",
				Name:      "deliveries_total",
				Help:      "Total number of successful notification deliveries",
			},
			[]string{"protocol"},
		),

		NotificationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "notify",
				Name:      "delivery_failures_total",
				Help:      "Total number of failed notification deliveries (absorbed)",
			},
			[]string{"protocol"},
		),

		TopicClientsConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "topics",
				Name:      "clients_connected",
				Help:      "Number of currently connected WebSocket topic clients",
			},
		),
	}
}
