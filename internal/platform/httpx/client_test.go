// SPDX-License-Identifier: MIT

package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DefaultTimeoutAndTransport(t *testing.T) {
	client := NewClient(Options{})
	if client.Timeout != defaultClientTimeout {
		t.Fatalf("timeout = %v, want %v", client.Timeout, defaultClientTimeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", client.Transport)
	}
	if transport.MaxIdleConns != defaultMaxIdleConns {
		t.Fatalf("MaxIdleConns = %d, want %d", transport.MaxIdleConns, defaultMaxIdleConns)
	}
	if transport.ResponseHeaderTimeout != defaultResponseHeaderTimeout {
		t.Fatalf("ResponseHeaderTimeout = %v, want %v", transport.ResponseHeaderTimeout, defaultResponseHeaderTimeout)
	}
}

func TestNewClient_ShortTimeoutClampsTransport(t *testing.T) {
	client := NewClient(Options{Timeout: 2 * time.Second})
	transport := client.Transport.(*http.Transport)
	assert.Equal(t, 2*time.Second, transport.ResponseHeaderTimeout)
	assert.Equal(t, 2*time.Second, transport.TLSHandshakeTimeout)
}

func TestNewClient_SetsUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.UserAgent())
	}))
	defer srv.Close()

	client := NewClient(Options{UserAgent: "v2m3u/test", Traced: true})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{"v2m3u/test", "custom"}, got)
}
