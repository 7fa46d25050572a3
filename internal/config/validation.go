// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/ManuGH/v2m3u/internal/validate"
)

// Validate reports every problem in cfg at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if len(cfg.Origins) == 0 {
		v.AddError("origins", "at least one origin is required", cfg.Origins)
	}
	for i, o := range cfg.Origins {
		v.Origin(fmt.Sprintf("origins[%d]", i), o)
	}
	for i, src := range cfg.GuideSources {
		v.GuideSource(fmt.Sprintf("guideSources[%d]", i), src)
	}

	v.NotEmpty("outputDir", cfg.OutputDir)
	v.OneOf("dedupPolicy", cfg.DedupPolicy, []string{"drop", "disambiguate"})
	v.OneOf("sortOrder", cfg.SortOrder, []string{"binary", "locale"})
	if cfg.SortOrder == "locale" {
		if _, err := language.Parse(cfg.Locale); err != nil {
			v.AddError("locale", fmt.Sprintf("invalid BCP 47 tag: %v", err), cfg.Locale)
		}
	}

	v.PositiveDuration("fetch.timeout", cfg.Fetch.Timeout)
	v.Range("fetch.retries", cfg.Fetch.Retries, 1, 10)
	v.PositiveDuration("fetch.backoffBase", cfg.Fetch.BackoffBase)
	if cfg.Fetch.BackoffMax < cfg.Fetch.BackoffBase {
		v.AddError("fetch.backoffMax", "must not be smaller than fetch.backoffBase", cfg.Fetch.BackoffMax)
	}
	v.Range("fetch.concurrency", cfg.Fetch.Concurrency, 1, 64)
	v.NonNegative("fetch.ratePerSecond", cfg.Fetch.RatePerSecond)
	if cfg.Fetch.MaxGuideBytes <= 0 {
		v.AddError("fetch.maxGuideBytes", "value must be positive", cfg.Fetch.MaxGuideBytes)
	}

	v.Range("breaker.threshold", cfg.Breaker.Threshold, 1, 100)
	v.PositiveDuration("breaker.resetTimeout", cfg.Breaker.ResetTimeout)

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	if cfg.Server.RefreshInterval < 0 {
		v.AddError("server.refreshInterval", "cannot be negative (0 disables scheduled refreshes)", cfg.Server.RefreshInterval)
	}
	v.Positive("server.refreshRateLimit", cfg.Server.RefreshRateLimit)

	v.OneOf("logLevel", cfg.LogLevel, validate.LogLevels())

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
