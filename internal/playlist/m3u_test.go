// SPDX-License-Identifier: MIT
package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteM3UFormat(t *testing.T) {
	entries := []RenderedEntry{
		{
			Name:      "RAI 1 (VAVOO)",
			URL:       "https://vavoo.to/play/100/index.m3u8",
			GuideID:   "rai1.it",
			Country:   "Italy",
			UserAgent: "VAVOO/2.6",
			Referrer:  "https://vavoo.to",
		},
		{
			Name:      "RAI 1 (VAVOO2)",
			URL:       "https://vavoo.to/play/101/index.m3u8",
			Country:   "Italy",
			UserAgent: "VAVOO/2.6",
			Referrer:  "https://vavoo.to",
		},
	}

	var b strings.Builder
	require.NoError(t, WriteM3U(&b, []string{"https://epg.a/it.xml.gz", "https://epg.b/x.xml"}, entries))

	want := `#EXTM3U x-tvg-url="https://epg.a/it.xml.gz, https://epg.b/x.xml"

#EXTINF:-1 tvg-id="rai1.it" tvg-name="RAI 1 (VAVOO)" group-title="Italy" http-user-agent="VAVOO/2.6" http-referrer="https://vavoo.to", RAI 1 (VAVOO)
https://vavoo.to/play/100/index.m3u8

#EXTINF:-1 tvg-id="" tvg-name="RAI 1 (VAVOO2)" group-title="Italy" http-user-agent="VAVOO/2.6" http-referrer="https://vavoo.to", RAI 1 (VAVOO2)
https://vavoo.to/play/101/index.m3u8

`
	assert.Equal(t, want, b.String())
}

func TestWriteM3UHeaderOnly(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteM3U(&b, nil, nil))
	assert.Equal(t, "#EXTM3U x-tvg-url=\"\"\n\n", b.String())
}

func TestWriteM3UEscapesAttributes(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteM3U(&b, nil, []RenderedEntry{{
		Name: "Say \"Hi\"\nTV",
		URL:  "https://x.to/play/1/index.m3u8",
	}}))
	out := b.String()
	assert.Contains(t, out, `tvg-name="Say 'Hi' TV"`)
	assert.Equal(t, 1, strings.Count(out, "#EXTINF"))
	assert.Equal(t, 5, strings.Count(out, "\n"))
}
