// SPDX-License-Identifier: MIT
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parsed is a playlist read back from disk.
type Parsed struct {
	GuideURLs []string
	Entries   []RenderedEntry
}

// Parse reads an extended M3U playlist as written by WriteM3U. Unknown
// directives are ignored; an #EXTINF without a following URL is dropped.
func Parse(r io.Reader) (Parsed, error) {
	var out Parsed
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var current *RenderedEntry
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case first && !strings.HasPrefix(line, "#EXTM3U"):
			return out, fmt.Errorf("not an extended M3U playlist")
		case strings.HasPrefix(line, "#EXTM3U"):
			if urls := attr(line, "x-tvg-url"); urls != "" {
				for _, u := range strings.Split(urls, ",") {
					if u = strings.TrimSpace(u); u != "" {
						out.GuideURLs = append(out.GuideURLs, u)
					}
				}
			}
		case strings.HasPrefix(line, "#EXTINF:"):
			current = &RenderedEntry{
				GuideID:   attr(line, "tvg-id"),
				Name:      attr(line, "tvg-name"),
				Country:   attr(line, "group-title"),
				UserAgent: attr(line, "http-user-agent"),
				Referrer:  attr(line, "http-referrer"),
			}
			if current.Name == "" {
				if idx := strings.LastIndex(line, ","); idx != -1 {
					current.Name = strings.TrimSpace(line[idx+1:])
				}
			}
		case strings.HasPrefix(line, "#"):
			continue
		default:
			if current != nil {
				current.URL = line
				out.Entries = append(out.Entries, *current)
				current = nil
			}
		}
		first = false
	}
	if first {
		return out, fmt.Errorf("empty playlist")
	}
	return out, sc.Err()
}

func attr(line, key string) string {
	prefix := key + `="`
	idx := strings.Index(line, prefix)
	if idx == -1 {
		return ""
	}
	rest := line[idx+len(prefix):]
	end := strings.IndexByte(rest, '"')
	if end == -1 {
		return ""
	}
	return rest[:end]
}
