// Package retry implements exponential backoff with optional jitter for
// outbound network operations (registry lookups, backend pushes).
//
// Errors wrapped with NonRetryable abort the loop immediately; everything
// else is retried up to Config.MaxAttempts with delays growing by
// Config.Multiplier, capped at Config.MaxDelay. Context cancellation is
// honored between attempts.
package retry
