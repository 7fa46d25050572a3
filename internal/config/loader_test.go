// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader("", "", "1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "1.2.3"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, cfg.MatchGuides(), "no guide sources configured")
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
origins:
  - https://vavoo.to/
  - https://huhu.to
  - https://vavoo.to
guideSources:
  - https://epg.example/it.xml.gz
outputDir: out
dedupPolicy: Drop
fetch:
  timeout: 20s
  retries: 5
breaker:
  resetTimeout: 2m
`)
	cfg, err := NewLoader(path, "", "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://vavoo.to", "https://huhu.to"}, cfg.Origins)
	assert.Equal(t, []string{"https://epg.example/it.xml.gz"}, cfg.GuideSources)
	assert.True(t, cfg.MatchGuides())
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "drop", cfg.DedupPolicy)
	assert.Equal(t, 20*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 5, cfg.Fetch.Retries)
	assert.Equal(t, 2*time.Minute, cfg.Breaker.ResetTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Fetch.BackoffBase)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yml", "outputDir: from-file\nfetch:\n  concurrency: 2\n")
	t.Setenv("V2M3U_OUTPUT_DIR", "from-env")
	t.Setenv("V2M3U_ORIGINS", "https://a.test, ,https://b.test/")
	t.Setenv("V2M3U_FETCH_TIMEOUT", "3s")
	t.Setenv("V2M3U_GUIDE_MATCHING", "no")

	l := NewLoader(path, "", "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Origins)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 2, cfg.Fetch.Concurrency)
	assert.False(t, cfg.GuideMatching)
	assert.Contains(t, l.ConsumedEnvKeys, "V2M3U_OUTPUT_DIR")
	assert.Contains(t, l.ConsumedEnvKeys, "V2M3U_TELEMETRY_SAMPLING")
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	envFile := writeFile(t, "test.env", "V2M3U_LOCALE=it\nV2M3U_DEDUP_POLICY=drop\n")
	t.Setenv("V2M3U_DEDUP_POLICY", "disambiguate")
	t.Cleanup(func() { _ = os.Unsetenv("V2M3U_LOCALE") })

	cfg, err := NewLoader("", envFile, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "it", cfg.Locale)
	assert.Equal(t, "disambiguate", cfg.DedupPolicy)
}

func TestLoadMissingExplicitEnvFile(t *testing.T) {
	_, err := NewLoader("", filepath.Join(t.TempDir(), "missing.env"), "").Load()
	assert.Error(t, err)
}

func TestLoadFileStrictness(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown key", "c.yaml", "outputDir: x\nbouquet: y\n", "strict config parse error"},
		{"multiple documents", "c.yaml", "outputDir: x\n---\noutputDir: y\n", "multiple documents"},
		{"wrong extension", "c.json", "{}", "unsupported config format"},
		{"invalid value", "c.yaml", "dedupPolicy: merge\n", "dedupPolicy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := NewLoader(path, "", "").Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")
	cfg, err := NewLoader(path, "", "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Origins, cfg.Origins)
}

func TestNormalizeDropsBlankAndDuplicates(t *testing.T) {
	cfg := AppConfig{
		Origins:      []string{" https://vavoo.to// ", "", "https://vavoo.to"},
		GuideSources: []string{"a.xml", " a.xml", "b.xml"},
		LogLevel:     " DEBUG ",
	}
	Normalize(&cfg)
	assert.Equal(t, []string{"https://vavoo.to"}, cfg.Origins)
	assert.Equal(t, []string{"a.xml", "b.xml"}, cfg.GuideSources)
	assert.Equal(t, "debug", cfg.LogLevel)
}
