// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Base: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Base: time.Second, MaxDelay: 3 * time.Second}
	assert.Equal(t, time.Second, p.delay(0))
	assert.Equal(t, 2*time.Second, p.delay(1))
	assert.Equal(t, 3*time.Second, p.delay(2))
	assert.Equal(t, 3*time.Second, p.delay(62))
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var waits []int
	err := Retry(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return &Error{Sentinel: ErrUpstreamError}
		}
		return nil
	}, func(attempt int, _ time.Duration, _ error) {
		waits = append(waits, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, waits)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return &Error{Sentinel: ErrNotFound}
	}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "after 1 attempt(s)")
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		return errors.New("flaky")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), RetryPolicy{}, func(context.Context) error {
		calls++
		return errors.New("x")
	}, nil)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsCancellationDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Attempts: 3, Base: time.Hour}

	err := Retry(ctx, p, func(context.Context) error {
		return errors.New("flaky")
	}, func(int, time.Duration, error) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
}
