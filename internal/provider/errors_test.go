// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/v2m3u/internal/resilience"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   error
	}{
		{"ok", nil, http.StatusOK, nil},
		{"no content", nil, http.StatusNoContent, nil},
		{"not found", nil, http.StatusNotFound, ErrNotFound},
		{"unauthorized", nil, http.StatusUnauthorized, ErrForbidden},
		{"forbidden", nil, http.StatusForbidden, ErrForbidden},
		{"rate limited", nil, http.StatusTooManyRequests, ErrRateLimited},
		{"server error", nil, http.StatusBadGateway, ErrUpstreamError},
		{"redirect", nil, http.StatusMultipleChoices, ErrUpstreamBadResponse},
		{"deadline", context.DeadlineExceeded, 0, ErrTimeout},
		{"net timeout", timeoutErr{}, 0, ErrTimeout},
		{"transport", errors.New("connection refused"), 0, ErrUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err, tt.status))
		})
	}
}

func TestErrorUnwrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapError("channels", "https://vavoo.to/channels", cause, 0)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)

	var pe *Error
	assert.ErrorAs(t, fmt.Errorf("outer: %w", err), &pe)
	assert.Equal(t, "https://vavoo.to/channels", pe.URL)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestErrorMessageIncludesStatus(t *testing.T) {
	err := wrapError("channels", "https://vavoo.to/channels", nil, http.StatusServiceUnavailable)
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.ErrorIs(t, err, ErrUpstreamError)
}

func TestRetryable(t *testing.T) {
	assert.False(t, retryable(nil))
	assert.False(t, retryable(&Error{Sentinel: ErrNotFound}))
	assert.False(t, retryable(&Error{Sentinel: ErrForbidden}))
	assert.False(t, retryable(resilience.ErrCircuitOpen))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(&Error{Sentinel: ErrUpstreamError}))
	assert.True(t, retryable(&Error{Sentinel: ErrTimeout}))
	assert.True(t, retryable(errors.New("anything else")))
}
