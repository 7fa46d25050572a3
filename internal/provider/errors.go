// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/ManuGH/v2m3u/internal/resilience"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("upstream: resource not found")
	ErrForbidden           = errors.New("upstream: access forbidden")
	ErrUpstreamUnavailable = errors.New("upstream: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("upstream: internal error (5xx)")
	ErrUpstreamBadResponse = errors.New("upstream: invalid response format or malformed data")
	ErrTimeout             = errors.New("upstream: request timed out")
	ErrRateLimited         = errors.New("upstream: rate limited")
)

// Error wraps a sentinel with request context.
type Error struct {
	Sentinel  error
	Operation string
	URL       string
	Status    int
	Err       error // lower-level cause (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("provider: %s %s: %v", e.Operation, e.URL, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// wrapError classifies a transport error or an HTTP status into an *Error.
func wrapError(op, url string, err error, status int) error {
	sentinel := classify(err, status)
	if sentinel == nil {
		return nil
	}
	return &Error{Sentinel: sentinel, Operation: op, URL: url, Status: status, Err: err}
}

func classify(err error, status int) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return ErrTimeout
		}
		return ErrUpstreamUnavailable
	}
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrUpstreamError
	default:
		return ErrUpstreamBadResponse
	}
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return false
	case errors.Is(err, resilience.ErrCircuitOpen):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}
