// Package registry resolves sensor ids to backend bindings.
//
// A Binding tells the dispatcher where a sensor's data lives: the URL of
// the raw data store endpoint and the backend kind the store implements.
// Bindings are owned by an external sensor registry service; this package
// provides the HTTP client for that service plus a caching layer so a
// sensor's binding is fetched at most once per process lifetime.
//
// The cache deliberately has no invalidation by default: bindings are
// treated as effectively immutable once created. If a sensor's backend is
// rebound while a process is running, the stale binding is served until
// restart. A TTL strategy can be enabled through cache configuration when
// that trade-off is not acceptable.
package registry
