// Package retry provides an explicit retry policy for calls that cross the
// network boundary. Local operations never retry; only the embedding and
// partitioning calls wrap themselves in a Policy.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy describes how a transient failure is retried. Retryable decides
// whether an error is worth another attempt; a nil Retryable retries
// everything except context cancellation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	Retryable   func(error) bool
}

// DefaultPolicy mirrors the ingestion retry budget: 3 attempts, exponential
// backoff starting at one second, capped at ten.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		Jitter:      true,
		Retryable:   retryable,
	}
}

// Do runs fn until it succeeds, the error is not retryable, the attempt
// budget is exhausted, or ctx is done. The last error is returned on failure.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// delay computes the backoff before the given attempt (1-based for the first
// retry). Exponential doubling from BaseDelay, capped at MaxDelay, with up to
// 50% random jitter when enabled.
func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	d := base << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter {
		d += time.Duration(rand.Int63n(int64(d)/2 + 1))
	}
	return d
}
