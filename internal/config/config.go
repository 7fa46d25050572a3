// SPDX-License-Identifier: MIT

// Package config loads the v2m3u configuration from defaults, a YAML file,
// a .env file and V2M3U_* environment variables.
package config

import (
	"time"
)

// AppConfig is the complete runtime configuration. It is passed explicitly
// into every refresh; nothing in it is process-global.
type AppConfig struct {
	// Origins are provider endpoints serving /channels.
	Origins []string `yaml:"origins"`
	// GuideSources are XMLTV locations (http(s), file:// or a local path).
	GuideSources []string `yaml:"guideSources"`
	// GuideMatching enables guide id enrichment when GuideSources is set.
	GuideMatching bool   `yaml:"guideMatching"`
	OutputDir     string `yaml:"outputDir"`
	// DedupPolicy is "drop" or "disambiguate".
	DedupPolicy string `yaml:"dedupPolicy"`
	// SortOrder is "binary" or "locale"; Locale is a BCP 47 tag.
	SortOrder string `yaml:"sortOrder"`
	Locale    string `yaml:"locale"`

	Fetch     FetchConfig     `yaml:"fetch"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	// Version is the binary version, never read from file or env.
	Version string `yaml:"-"`
}

// FetchConfig tunes provider and guide downloads.
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// Retries is the number of attempts per provider fetch.
	Retries     int           `yaml:"retries"`
	BackoffBase time.Duration `yaml:"backoffBase"`
	BackoffMax  time.Duration `yaml:"backoffMax"`
	// Concurrency bounds parallel downloads and guide matching workers.
	Concurrency   int     `yaml:"concurrency"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
	MaxGuideBytes int64   `yaml:"maxGuideBytes"`
	UserAgent     string  `yaml:"userAgent"`
}

// BreakerConfig configures the per-origin circuit breaker.
type BreakerConfig struct {
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"resetTimeout"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RefreshInterval schedules periodic refreshes; 0 disables them.
	RefreshInterval time.Duration `yaml:"refreshInterval"`
	// RefreshRateLimit caps POST /api/refresh calls per client per minute.
	RefreshRateLimit int `yaml:"refreshRateLimit"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// MatchGuides reports whether guide matching runs for this configuration.
func (c AppConfig) MatchGuides() bool {
	return c.GuideMatching && len(c.GuideSources) > 0
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Origins:       []string{"https://vavoo.to"},
		GuideMatching: true,
		OutputDir:     "m3u8_files",
		DedupPolicy:   "disambiguate",
		SortOrder:     "binary",
		Locale:        "und",
		Fetch: FetchConfig{
			Timeout:       10 * time.Second,
			Retries:       3,
			BackoffBase:   time.Second,
			BackoffMax:    30 * time.Second,
			Concurrency:   4,
			MaxGuideBytes: 512 << 20,
			UserAgent:     "v2m3u",
		},
		Breaker: BreakerConfig{
			Threshold:    5,
			ResetTimeout: time.Minute,
		},
		Server: ServerConfig{
			ListenAddr:       ":8080",
			RefreshInterval:  6 * time.Hour,
			RefreshRateLimit: 6,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			SamplingRate: 1.0,
		},
		LogLevel:   "info",
		LogService: "v2m3u",
	}
}
