// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy is an exponential backoff schedule: the wait after attempt n
// (0-based) is Base * 2^n, capped at MaxDelay.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	MaxDelay time.Duration
}

// DefaultRetryPolicy makes three attempts waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Base: time.Second, MaxDelay: 30 * time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Base << attempt
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	return d
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. onRetry, if set, is called before
// each wait.
func Retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		made++
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == attempts-1 {
			break
		}

		wait := p.delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, wait, lastErr)
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return fmt.Errorf("after %d attempt(s): %w", made, lastErr)
}
