// ABOUTME: Backoff helper for bounded retries against the store and provider
// ABOUTME: Exponential with jitter so concurrent retriers spread out
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

const maxBackoff = 15 * time.Second

// Backoff returns the delay before retry number attempt (1-based).
// Doubles each attempt from base, capped at 15s, with +/-25% jitter.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	// Sub-nanosecond jitter windows collapse to no jitter; Int64N
	// panics on a zero bound
	half := int64(d) / 2
	if half < 1 {
		return d
	}
	jitter := time.Duration(rand.Int64N(half)) - d/4
	return d + jitter
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
