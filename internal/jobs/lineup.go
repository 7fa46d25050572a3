// SPDX-License-Identifier: MIT

// Package jobs runs refreshes: it fetches provider listings and guide
// documents, builds the channel lineup and writes the playlists.
package jobs

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/v2m3u/internal/channels"
	"github.com/ManuGH/v2m3u/internal/epg"
	"github.com/ManuGH/v2m3u/internal/playlist"
)

// Source is the fetched listing of one origin. Records is nil when the
// fetch failed.
type Source struct {
	Origin  string
	Records []channels.RawRecord
}

// LineupOptions configures BuildLineup.
type LineupOptions struct {
	Policy channels.Policy
	Sort   playlist.Options
	// MatchGuides enables guide id resolution against the given documents.
	MatchGuides bool
	// Workers bounds parallel guide matching (0 = GOMAXPROCS).
	Workers int
}

// OriginStats is the ingestion outcome of one origin.
type OriginStats struct {
	Origin string
	channels.IngestStats
}

// Lineup is the result of BuildLineup.
type Lineup struct {
	Groups   channels.Groups
	Assembly playlist.Assembly
	Origins  []OriginStats
	// Collisions counts entries whose name was already taken in their
	// country before deduplication.
	Collisions int
	// Matches counts resolved base names by outcome.
	Matches map[epg.Outcome]int
}

// BuildLineup turns fetched listings and guide documents into the ordered
// channel lineup. It performs no I/O and never fails: unusable records are
// skipped and counted, a missing guide leaves guide ids empty.
func BuildLineup(sources []Source, guides []*epg.Document, opts LineupOptions) Lineup {
	var (
		all   []channels.Entry
		stats = make([]OriginStats, 0, len(sources))
	)
	for _, src := range sources {
		entries, st := channels.Ingest(src.Records, src.Origin)
		all = append(all, entries...)
		stats = append(stats, OriginStats{Origin: src.Origin, IngestStats: st})
	}

	grouped := channels.GroupByCountry(all)
	collisions := countCollisions(grouped)
	groups := channels.DedupeGroups(grouped, opts.Policy)

	matches := map[epg.Outcome]int{}
	if opts.MatchGuides {
		matches = matchGuides(groups, epg.NewIndex(guides...), opts.Workers)
	}

	return Lineup{
		Groups:     groups,
		Assembly:   playlist.Assemble(groups, opts.Sort),
		Origins:    stats,
		Collisions: collisions,
		Matches:    matches,
	}
}

func countCollisions(groups channels.Groups) int {
	n := 0
	for _, entries := range groups {
		seen := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			if _, dup := seen[e.BaseName]; dup {
				n++
				continue
			}
			seen[e.BaseName] = struct{}{}
		}
	}
	return n
}

// matchGuides resolves every distinct base name once and sets GuideID on the
// entries in place. Results land in pre-indexed slots, so the outcome does
// not depend on scheduling.
func matchGuides(groups channels.Groups, idx *epg.Index, workers int) map[epg.Outcome]int {
	slot := make(map[string]int)
	var names []string
	for _, entries := range groups {
		for _, e := range entries {
			if _, ok := slot[e.BaseName]; !ok {
				slot[e.BaseName] = len(names)
				names = append(names, e.BaseName)
			}
		}
	}

	results := make([]epg.Match, len(names))
	if idx.Len() > 0 {
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		g, _ := errgroup.WithContext(context.Background())
		g.SetLimit(workers)
		for i, name := range names {
			g.Go(func() error {
				results[i] = idx.Match(name)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range results {
			results[i] = epg.Match{Outcome: epg.OutcomeNone}
		}
	}

	counts := make(map[epg.Outcome]int, 3)
	for _, entries := range groups {
		for i := range entries {
			m := results[slot[entries[i].BaseName]]
			entries[i].GuideID = m.ID
			counts[m.Outcome]++
		}
	}
	return counts
}
