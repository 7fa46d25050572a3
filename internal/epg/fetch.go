// SPDX-License-Identifier: MIT

package epg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	netx "github.com/ManuGH/v2m3u/internal/platform/net"
)

// Loader fetches and decodes guide documents.
type Loader struct {
	client   *http.Client
	maxBytes int64
}

// NewLoader returns a Loader using client. maxBytes bounds every decompressed
// document (0 = no limit).
func NewLoader(client *http.Client, maxBytes int64) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client, maxBytes: maxBytes}
}

// Load fetches source, which is an http(s) URL or a local file path.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return l.loadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("epg: build request: %w", err)
	}
	res, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("epg: fetch %s: %w", netx.SanitizeURL(source), err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("epg: fetch %s: HTTP %d", netx.SanitizeURL(source), res.StatusCode)
	}
	return Decode(res.Body, source, l.maxBytes)
}

func (l *Loader) loadFile(path string) (*Document, error) {
	path = filepath.Clean(strings.TrimPrefix(path, "file://"))
	// #nosec G304 -- guide paths come from operator configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("epg: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f, path, l.maxBytes)
}
