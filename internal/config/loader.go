// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/v2m3u/internal/log"
)

// EnvPrefix prefixes every environment variable read by the Loader.
const EnvPrefix = "V2M3U_"

// DefaultEnvFile is loaded when no explicit .env path is given and it exists.
const DefaultEnvFile = ".env"

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	envFile    string
	version    string
	// ConsumedEnvKeys records every variable the last Load looked at.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. configPath and envFile may
// be empty.
func NewLoader(configPath, envFile, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		envFile:         envFile,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ConfigPath returns the YAML file this loader reads, if any.
func (l *Loader) ConfigPath() string {
	return l.configPath
}

// Load builds the configuration: defaults, then the YAML file, then .env and
// the process environment, then normalization and validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.loadEnvFile(); err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	l.mergeEnv(&cfg)

	Normalize(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file over cfg with STRICT parsing. Unknown fields
// and multiple documents are rejected.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// loadEnvFile populates the process environment from a dotenv file without
// overriding variables that are already set.
func (l *Loader) loadEnvFile() error {
	path := l.envFile
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && l.envFile == "" {
			return nil
		}
		return err
	}
	logger := log.WithComponent("config")
	logger.Debug().
		Str(log.FieldEvent, "config.env_file_loaded").
		Str(log.FieldPath, path).
		Msg("loaded environment file")
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Origins = l.envList("ORIGINS", cfg.Origins)
	cfg.GuideSources = l.envList("GUIDE_SOURCES", cfg.GuideSources)
	cfg.GuideMatching = l.envBool("GUIDE_MATCHING", cfg.GuideMatching)
	cfg.OutputDir = l.envString("OUTPUT_DIR", cfg.OutputDir)
	cfg.DedupPolicy = l.envString("DEDUP_POLICY", cfg.DedupPolicy)
	cfg.SortOrder = l.envString("SORT_ORDER", cfg.SortOrder)
	cfg.Locale = l.envString("LOCALE", cfg.Locale)

	cfg.Fetch.Timeout = l.envDuration("FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.Retries = l.envInt("FETCH_RETRIES", cfg.Fetch.Retries)
	cfg.Fetch.BackoffBase = l.envDuration("FETCH_BACKOFF", cfg.Fetch.BackoffBase)
	cfg.Fetch.BackoffMax = l.envDuration("FETCH_BACKOFF_MAX", cfg.Fetch.BackoffMax)
	cfg.Fetch.Concurrency = l.envInt("FETCH_CONCURRENCY", cfg.Fetch.Concurrency)
	cfg.Fetch.RatePerSecond = l.envFloat("FETCH_RATE", cfg.Fetch.RatePerSecond)
	cfg.Fetch.MaxGuideBytes = int64(l.envInt("GUIDE_MAX_BYTES", int(cfg.Fetch.MaxGuideBytes)))
	cfg.Fetch.UserAgent = l.envString("USER_AGENT", cfg.Fetch.UserAgent)

	cfg.Breaker.Threshold = l.envInt("BREAKER_THRESHOLD", cfg.Breaker.Threshold)
	cfg.Breaker.ResetTimeout = l.envDuration("BREAKER_RESET", cfg.Breaker.ResetTimeout)

	cfg.Server.ListenAddr = l.envString("LISTEN", cfg.Server.ListenAddr)
	cfg.Server.RefreshInterval = l.envDuration("REFRESH_INTERVAL", cfg.Server.RefreshInterval)
	cfg.Server.RefreshRateLimit = l.envInt("REFRESH_RATE_LIMIT", cfg.Server.RefreshRateLimit)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TELEMETRY_SAMPLING", cfg.Telemetry.SamplingRate)

	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("LOG_SERVICE", cfg.LogService)
}

func (l *Loader) consume(key string) string {
	key = EnvPrefix + key
	l.ConsumedEnvKeys[key] = struct{}{}
	return key
}

func (l *Loader) envString(key, def string) string {
	return ParseString(l.consume(key), def)
}

func (l *Loader) envBool(key string, def bool) bool {
	return ParseBool(l.consume(key), def)
}

func (l *Loader) envInt(key string, def int) int {
	return ParseInt(l.consume(key), def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	return ParseFloat(l.consume(key), def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	return ParseDuration(l.consume(key), def)
}

func (l *Loader) envList(key string, def []string) []string {
	return ParseList(l.consume(key), def)
}

// Normalize trims values, strips trailing slashes from origins and removes
// duplicate origins and guide sources while keeping first-seen order.
func Normalize(cfg *AppConfig) {
	cfg.Origins = uniqueTrimmed(cfg.Origins, func(s string) string { return strings.TrimRight(s, "/") })
	cfg.GuideSources = uniqueTrimmed(cfg.GuideSources, nil)
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.DedupPolicy = strings.ToLower(strings.TrimSpace(cfg.DedupPolicy))
	cfg.SortOrder = strings.ToLower(strings.TrimSpace(cfg.SortOrder))
	cfg.Locale = strings.TrimSpace(cfg.Locale)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(cfg.Telemetry.Exporter))
	cfg.Telemetry.Endpoint = strings.TrimSpace(cfg.Telemetry.Endpoint)
}

func uniqueTrimmed(in []string, transform func(string) string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if transform != nil {
			s = transform(s)
		}
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
