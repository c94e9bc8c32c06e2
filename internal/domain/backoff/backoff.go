// Package backoff computes retry waits and performs them.
package backoff

import (
	"context"
	"math"
	"time"
)

// Policy returns how long to wait before attempt (zero-based) given the
// error that failed the previous attempt. It must be pure.
type Policy func(attempt int, cause error) time.Duration

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Exponential returns base^attempt seconds for every attempt after the
// first. When rateLimited(cause) holds, cooldown is added on top. A positive
// maxWait caps the exponential part; zero leaves growth unbounded.
func Exponential(base float64, cooldown time.Duration, rateLimited func(error) bool, maxWait time.Duration) Policy {
	return func(attempt int, cause error) time.Duration {
		if attempt <= 0 {
			return 0
		}

		secs := math.Pow(base, float64(attempt))
		var wait time.Duration
		if secs >= math.MaxInt64/float64(time.Second) {
			wait = time.Duration(math.MaxInt64)
		} else {
			wait = time.Duration(secs * float64(time.Second))
		}
		if maxWait > 0 && wait > maxWait {
			wait = maxWait
		}

		if cause != nil && rateLimited != nil && rateLimited(cause) && cooldown > 0 {
			if wait > time.Duration(math.MaxInt64)-cooldown {
				return time.Duration(math.MaxInt64)
			}
			wait += cooldown
		}
		return wait
	}
}

// Sleep waits on a timer and returns ctx.Err() if ctx ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
