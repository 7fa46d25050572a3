// SPDX-License-Identifier: MIT

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 2, time.Minute, WithClock(clock))

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clock))

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())

	clock.now = clock.now.Add(10 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State(), "failed probe reopens")

	clock.now = clock.now.Add(10 * time.Second)
	assert.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)
	_ = cb.Execute(fail)
	_ = cb.Execute(ok)
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	isCanceled := func(err error) bool { return errors.Is(err, context.Canceled) }

	err := cb.Execute(func() error { return context.Canceled }, isCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("test", 0, 0)
	assert.Equal(t, 3, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
}
