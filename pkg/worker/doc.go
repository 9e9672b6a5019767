// Package worker implements a bounded, generic worker pool.
//
// The notifier uses it to run fire-and-forget notification deliveries off
// the dispatch path: jobs are submitted without blocking, dropped when the
// queue is full, and their results are recorded in statistics and optional
// Prometheus metrics rather than returned to the submitter.
package worker
