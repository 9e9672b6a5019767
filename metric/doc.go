// Package metric provides Prometheus metrics infrastructure for the
// dispatch core: a registry wrapping a dedicated prometheus.Registry,
// the core platform metrics, and an HTTP server exposing them.
//
// Components register their own collectors through MetricsRegistry.Register
// using component-scoped names; the core metrics in Metrics are registered
// once at construction.
package metric
