// SPDX-License-Identifier: MIT
package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	in := []RenderedEntry{
		{Name: "Rai 1 (VAVOO)", URL: "https://vavoo.to/play/1/index.m3u8", GuideID: "rai1.it", Country: "Italy", UserAgent: "VAVOO/2.6", Referrer: "https://vavoo.to"},
		{Name: "Sky, Sport", URL: "https://vavoo.to/play/2/index.m3u8", Country: "Italy", UserAgent: "VAVOO/2.6", Referrer: "https://vavoo.to"},
	}
	var b strings.Builder
	require.NoError(t, WriteM3U(&b, []string{"a.xml", "b.xml"}, in))

	out, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "b.xml"}, out.GuideURLs)
	assert.Equal(t, in, out.Entries)
}

func TestParsePlainExtinf(t *testing.T) {
	src := "#EXTM3U\n#EXTINF:-1 tvg-id=\"orf1.at\" group-title=\"AT\",ORF1 HD\nhttp://sref/1\n#EXTVLCOPT:foo\n#EXTINF:-1,Dangling\n"
	out, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "ORF1 HD", out.Entries[0].Name)
	assert.Equal(t, "orf1.at", out.Entries[0].GuideID)
	assert.Equal(t, "http://sref/1", out.Entries[0].URL)
}

func TestParseRejectsNonPlaylist(t *testing.T) {
	_, err := Parse(strings.NewReader("<html></html>"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("\n\n"))
	assert.Error(t, err)
}
