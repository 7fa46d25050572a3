// SPDX-License-Identifier: MIT

// Package playlist orders channel entries and renders them as M3U playlists.
package playlist

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ManuGH/v2m3u/internal/channels"
)

// ProtocolVersion is appended to the carrier tag in the client
// identification string, e.g. "VAVOO/2.6".
const ProtocolVersion = "2.6"

// SortOrder selects how names and countries are compared.
type SortOrder string

const (
	// SortBinary compares strings byte-wise (case-sensitive).
	SortBinary SortOrder = "binary"
	// SortLocale compares strings with the collation rules of a language.
	SortLocale SortOrder = "locale"
)

// Options configures Assemble.
type Options struct {
	Order  SortOrder
	Locale language.Tag
}

// RenderedEntry carries everything a writer needs for one playlist entry.
type RenderedEntry struct {
	Name    string
	URL     string
	GuideID string
	Country string
	// UserAgent is the synthetic client identification, TAG/ProtocolVersion.
	UserAgent string
	// Referrer is the origin that supplied the channel.
	Referrer string
}

// Assembly is the ordered output of Assemble.
type Assembly struct {
	// Countries lists every group key in output order.
	Countries  []string
	PerCountry map[string][]RenderedEntry
	// Combined holds all entries ordered by (country, name).
	Combined []RenderedEntry
}

// Len returns the number of entries in the combined playlist.
func (a Assembly) Len() int {
	return len(a.Combined)
}

// UserAgent builds the client identification string for a carrier tag.
func UserAgent(carrierTag string) string {
	return carrierTag + "/" + ProtocolVersion
}

// Render converts a channel entry into its rendered form.
func Render(e channels.Entry) RenderedEntry {
	return RenderedEntry{
		Name:      e.Name,
		URL:       e.URL,
		GuideID:   e.GuideID,
		Country:   e.Country,
		UserAgent: UserAgent(e.CarrierTag),
		Referrer:  e.Origin,
	}
}

// Assemble sorts every country group by name and builds the combined list
// sorted by country, then name. Equal keys keep their input order. Groups
// that are empty still appear in the result.
func Assemble(groups channels.Groups, opts Options) Assembly {
	compare := comparator(opts)

	a := Assembly{
		Countries:  make([]string, 0, len(groups)),
		PerCountry: make(map[string][]RenderedEntry, len(groups)),
	}
	total := 0
	for country, entries := range groups {
		a.Countries = append(a.Countries, country)
		total += len(entries)
	}
	slices.SortFunc(a.Countries, compare)

	a.Combined = make([]RenderedEntry, 0, total)
	for _, country := range a.Countries {
		rendered := make([]RenderedEntry, len(groups[country]))
		for i, e := range groups[country] {
			rendered[i] = Render(e)
		}
		slices.SortStableFunc(rendered, func(x, y RenderedEntry) int {
			return compare(x.Name, y.Name)
		})
		a.PerCountry[country] = rendered
		// countries are visited in order, so appending keeps (country, name)
		a.Combined = append(a.Combined, rendered...)
	}
	return a
}

func comparator(opts Options) func(a, b string) int {
	if opts.Order != SortLocale {
		return strings.Compare
	}
	col := collate.New(opts.Locale)
	return func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		// collation-equal strings still need a total order
		return cmp.Compare(a, b)
	}
}
