// SPDX-License-Identifier: MIT

package config

import (
	"net/url"

	"gopkg.in/yaml.v3"
)

// MaskURL hides the password of a URL carrying user info. Unparseable
// input is returned unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}

// Redacted returns a copy of cfg that is safe to print.
func Redacted(cfg AppConfig) AppConfig {
	out := cfg
	out.Origins = maskAll(cfg.Origins)
	out.GuideSources = maskAll(cfg.GuideSources)
	out.Telemetry.Endpoint = MaskURL(cfg.Telemetry.Endpoint)
	return out
}

func maskAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = MaskURL(s)
	}
	return out
}

// Dump renders the redacted configuration as YAML.
func Dump(cfg AppConfig) ([]byte, error) {
	return yaml.Marshal(Redacted(cfg))
}
