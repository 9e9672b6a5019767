// Package sensapp is the root of the sensapp-dispatch module, a telemetry
// ingestion and routing core for SenML sensor data.
//
// # Architecture
//
// Data flows through three stages:
//
//   - Ingestion: the gateway package accepts SenML envelopes over HTTP
//     (JSON or XML) and WebSocket clients for topic subscriptions.
//   - Routing: the dispatch package validates envelopes (senml package),
//     canonicalizes them into flat records, partitions records by sensor,
//     resolves each sensor to a storage binding (registry package), and
//     pushes records to the bound backend (backend package). Sensors that
//     cannot be routed are reported back to the caller; they never abort
//     the rest of the envelope.
//   - Notification: after a successful push, the notify package fans the
//     records out to subscribers over HTTP hooks or WebSocket topics.
//     Notification failures are logged and absorbed.
//
// Supporting packages:
//
//   - natsclient: NATS JetStream connection management; backs the
//     subscription store (notify/natskv) with a KV bucket.
//   - metric: Prometheus metric registration and the metrics endpoint.
//   - errors: error classification (transient, fatal, invalid) used to
//     decide retry behavior across the module.
//   - pkg/cache, pkg/retry, pkg/worker: generic TTL cache, backoff retry,
//     and worker pool used by the stages above.
//   - config: file plus environment configuration for the service binary
//     in cmd/sensapp-dispatch.
package sensapp
