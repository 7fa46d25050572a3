// SPDX-License-Identifier: MIT
package playlist

import (
	"bufio"
	"io"
	"strings"
)

var attrEscaper = strings.NewReplacer(`"`, "'", "\r", " ", "\n", " ")

var lineEscaper = strings.NewReplacer("\r", " ", "\n", " ")

// WriteM3U writes an extended M3U playlist. The header advertises the guide
// sources; every entry is followed by its URL line and a blank line.
func WriteM3U(w io.Writer, guideURLs []string, entries []RenderedEntry) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(`#EXTM3U x-tvg-url="`)
	bw.WriteString(attrEscaper.Replace(strings.Join(guideURLs, ", ")))
	bw.WriteString("\"\n\n")

	for _, e := range entries {
		bw.WriteString(`#EXTINF:-1 tvg-id="`)
		bw.WriteString(attrEscaper.Replace(e.GuideID))
		bw.WriteString(`" tvg-name="`)
		bw.WriteString(attrEscaper.Replace(e.Name))
		bw.WriteString(`" group-title="`)
		bw.WriteString(attrEscaper.Replace(e.Country))
		bw.WriteString(`" http-user-agent="`)
		bw.WriteString(attrEscaper.Replace(e.UserAgent))
		bw.WriteString(`" http-referrer="`)
		bw.WriteString(attrEscaper.Replace(e.Referrer))
		bw.WriteString(`", `)
		bw.WriteString(lineEscaper.Replace(e.Name))
		bw.WriteByte('\n')
		bw.WriteString(lineEscaper.Replace(e.URL))
		bw.WriteString("\n\n")
	}
	return bw.Flush()
}
