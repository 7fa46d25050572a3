// SPDX-License-Identifier: MIT

package channels

import (
	"regexp"
	"strings"

	"github.com/ManuGH/v2m3u/internal/normalize"
)

// DefaultCarrierTag is used when no host label can be taken from an origin.
const DefaultCarrierTag = "DEFAULT"

var hostLabel = regexp.MustCompile(`https?://([^/.]+)`)

// Build maps one raw provider record to an Entry. Malformed records and
// records without a name or id are rejected with the matching SkipReason.
func Build(raw RawRecord, origin string) (Entry, SkipReason) {
	if raw.Malformed {
		return Entry{}, SkipMalformed
	}
	name := normalize.ChannelName(raw.Name)
	if name == "" {
		return Entry{}, SkipMissingName
	}
	id := strings.TrimSpace(string(raw.ID))
	if id == "" {
		return Entry{}, SkipMissingID
	}

	country := normalize.Country(raw.Country)
	if country == "" {
		country = UnknownCountry
	}

	return Entry{
		Name:       name,
		BaseName:   name,
		URL:        PlaybackURL(origin, id),
		Origin:     origin,
		Country:    country,
		CarrierTag: CarrierTag(origin),
	}, SkipNone
}

// PlaybackURL is the provider's HLS path for a channel id. The layout is
// fixed by the provider and must not change.
func PlaybackURL(origin, id string) string {
	return origin + "/play/" + id + "/index.m3u8"
}

// CarrierTag returns the upper-cased host label of origin ("https://vavoo.to"
// gives "VAVOO"), or DefaultCarrierTag.
func CarrierTag(origin string) string {
	m := hostLabel.FindStringSubmatch(origin)
	if len(m) < 2 || m[1] == "" {
		return DefaultCarrierTag
	}
	return strings.ToUpper(m[1])
}

// IngestStats counts the outcome of ingesting one origin.
type IngestStats struct {
	Accepted int
	Skipped  map[SkipReason]int
}

// SkippedTotal sums skipped records over all reasons.
func (s IngestStats) SkippedTotal() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Ingest builds entries for every usable record of one origin, preserving
// input order.
func Ingest(records []RawRecord, origin string) ([]Entry, IngestStats) {
	stats := IngestStats{Skipped: make(map[SkipReason]int)}
	out := make([]Entry, 0, len(records))
	for _, r := range records {
		e, reason := Build(r, origin)
		if reason != SkipNone {
			stats.Skipped[reason]++
			continue
		}
		out = append(out, e)
		stats.Accepted++
	}
	return out, stats
}

// GroupByCountry splits entries by country, keeping first-seen order inside
// each group.
func GroupByCountry(entries []Entry) Groups {
	g := make(Groups)
	for _, e := range entries {
		g[e.Country] = append(g[e.Country], e)
	}
	return g
}
