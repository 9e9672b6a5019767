package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NotNil(t, registry)
	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.CoreMetrics())

	// Core metrics are gatherable without error
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRegisterAndUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_component_things_total",
		Help: "test counter",
	})

	require.NoError(t, registry.Register("test-component", "things_total", counter))

	// Duplicate registration under the same key fails
	err := registry.Register("test-component", "things_total", counter)
	assert.Error(t, err)

	assert.True(t, registry.Unregister("test-component", "things_total"))
	assert.False(t, registry.Unregister("test-component", "things_total"))
}

func TestCoreMetricsUsable(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.EnvelopesReceived.WithLabelValues("json").Inc()
	m.EnvelopesRejected.WithLabelValues("EmptyMeasurements").Inc()
	m.RecordsDispatched.WithLabelValues("raw").Add(2)
	m.SensorsFailed.WithLabelValues("unknown_sensor").Inc()
	m.DispatchDuration.Observe(0.01)
	m.NotificationsSent.WithLabelValues("http").Inc()
	m.NotificationFailures.WithLabelValues("websocket").Inc()
	m.TopicClientsConnected.Set(3)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sensapp_dispatch_envelopes_received_total"])
	assert.True(t, names["sensapp_notify_deliveries_total"])
	assert.True(t, names["sensapp_topics_clients_connected"])
}
