// SPDX-License-Identifier: MIT

// Package net holds URL helpers shared by fetchers and logging.
package net

import (
	"net/url"
)

// SanitizeURL removes user info and query parameters for safe logging.
// Local paths are returned unchanged.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	if u.Scheme == "" {
		return rawURL
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
