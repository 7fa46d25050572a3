// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/v2m3u/internal/channels"
	"github.com/ManuGH/v2m3u/internal/resilience"
)

func newTestClient(attempts int) *Client {
	return New(&http.Client{Timeout: 2 * time.Second}, Options{
		Retry:            fastPolicy(attempts),
		BreakerThreshold: 10,
		BreakerReset:     time.Minute,
	})
}

func TestChannelsDecodesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name": "RAI 1|H", "id": "100", "country": "Italy"},
			{"name": "Sky Sport 1", "id": 101},
			42,
			{"name": 7, "id": "102"}
		]`))
	}))
	defer srv.Close()

	recs, err := newTestClient(1).Channels(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, channels.RawRecord{Name: "RAI 1|H", ID: "100", Country: "Italy"}, recs[0])
	assert.Equal(t, channels.FlexID("101"), recs[1].ID)
	assert.True(t, recs[2].Malformed)
	assert.True(t, recs[3].Malformed)
}

func TestChannelsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	recs, err := newTestClient(3).Channels(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChannelsDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := newTestClient(3).Channels(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChannelsRejectsNonArrayBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "maintenance"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(1).Channels(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUpstreamBadResponse)
}

func TestChannelsOpensBreakerPerOrigin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(http.DefaultClient, Options{
		Retry:            fastPolicy(1),
		BreakerThreshold: 2,
		BreakerReset:     time.Hour,
	})
	for i := 0; i < 2; i++ {
		_, err := c.Channels(context.Background(), srv.URL)
		require.ErrorIs(t, err, ErrUpstreamError)
	}

	_, err := c.Channels(context.Background(), srv.URL)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.StateOpen, c.breaker(srv.URL).State())
}

func TestChannelsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(3)
	_, err := c.Channels(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, resilience.StateClosed, c.breaker(srv.URL).State())
}

func TestListingURL(t *testing.T) {
	assert.Equal(t, "https://vavoo.to/channels", ListingURL("https://vavoo.to"))
}
