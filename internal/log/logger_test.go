// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigureAttachesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "v2m3u-test", Version: "v0.0.0"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("jobs")
	l.Info().Str(FieldEvent, "refresh.start").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "v2m3u-test", entry["service"])
	require.Equal(t, "v0.0.0", entry["version"])
	require.Equal(t, "jobs", entry[FieldComponent])
	require.Equal(t, "refresh.start", entry[FieldEvent])
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "loud", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len(), "debug must be filtered at info level")

	l.Info().Msg("shown")
	require.NotZero(t, buf.Len())
}
