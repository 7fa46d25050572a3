// SPDX-License-Identifier: MIT

// Package provider fetches channel listings from provider endpoints.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/v2m3u/internal/channels"
	xglog "github.com/ManuGH/v2m3u/internal/log"
	"github.com/ManuGH/v2m3u/internal/resilience"
)

const maxListingBytes = 64 << 20

// Options configures a Client.
type Options struct {
	Retry RetryPolicy
	// RatePerSecond paces requests across all origins (0 = unlimited).
	RatePerSecond float64
	// BreakerThreshold and BreakerReset configure the per-origin breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// Client fetches /channels listings. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	retry   RetryPolicy
	limiter *rate.Limiter

	breakerThreshold int
	breakerReset     time.Duration

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// New creates a Client on top of httpClient.
func New(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		http:             httpClient,
		retry:            opts.Retry,
		breakerThreshold: opts.BreakerThreshold,
		breakerReset:     opts.BreakerReset,
		breakers:         make(map[string]*resilience.CircuitBreaker),
	}
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// ListingURL is the endpoint serving an origin's channel list.
func ListingURL(origin string) string {
	return origin + "/channels"
}

// Channels fetches the raw channel list of origin, retrying transient
// failures. Elements that cannot be decoded are returned with Malformed set
// so that ingestion can count them.
func (c *Client) Channels(ctx context.Context, origin string) ([]channels.RawRecord, error) {
	logger := xglog.WithComponentFromContext(ctx, "provider")
	breaker := c.breaker(origin)
	callerDone := func(error) bool { return ctx.Err() != nil }

	var records []channels.RawRecord
	err := Retry(ctx, c.retry, func(ctx context.Context) error {
		return breaker.Execute(func() error {
			recs, err := c.fetch(ctx, origin)
			if err != nil {
				return err
			}
			records = recs
			return nil
		}, callerDone)
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "provider.retry").
			Str(xglog.FieldOrigin, origin).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("channel list fetch failed, retrying")
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, origin string) ([]channels.RawRecord, error) {
	const op = "channels"
	u := ListingURL(origin)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("provider: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, wrapError(op, u, err, 0)
	}
	defer func() { _ = res.Body.Close() }()

	if err := wrapError(op, u, nil, res.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(res.Body, maxListingBytes)).Decode(&raw); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, wrapError(op, u, err, 0)
		}
		return nil, &Error{Sentinel: ErrUpstreamBadResponse, Operation: op, URL: u, Status: res.StatusCode, Err: err}
	}

	records := make([]channels.RawRecord, len(raw))
	for i, msg := range raw {
		if err := json.Unmarshal(msg, &records[i]); err != nil {
			records[i] = channels.RawRecord{Malformed: true}
		}
	}
	return records, nil
}

func (c *Client) breaker(origin string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[origin]
	if !ok {
		cb = resilience.NewCircuitBreaker("provider:"+channels.CarrierTag(origin), c.breakerThreshold, c.breakerReset)
		c.breakers[origin] = cb
	}
	return cb
}
