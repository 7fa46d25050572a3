// SPDX-License-Identifier: MIT

package epg

import (
	"github.com/ManuGH/v2m3u/internal/normalize"
)

const (
	// ConfidentThreshold ends the scan: the first entry scoring at least
	// this much is returned immediately.
	ConfidentThreshold = 98
	// AcceptThreshold is the minimum score for a match to be used at all.
	AcceptThreshold = 80
)

// Outcome classifies a resolution result.
type Outcome string

const (
	OutcomeConfident Outcome = "confident"
	OutcomeAccepted  Outcome = "accepted"
	OutcomeNone      Outcome = "none"
)

// Match is the result of resolving one channel name.
type Match struct {
	ID      string
	Score   int
	Outcome Outcome
}

type indexedEntry struct {
	id     string
	tokens []rune
}

// Index holds the guide entries of all documents, pre-tokenized, in a fixed
// scan order: documents in the order given, entries in document order.
// An Index is immutable and safe for concurrent use.
type Index struct {
	entries []indexedEntry
}

// NewIndex builds an index over docs. Nil documents (failed loads) and
// entries without a display name or id are left out.
func NewIndex(docs ...*Document) *Index {
	idx := &Index{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, e := range doc.Entries {
			if e.ID == "" {
				continue
			}
			key := normalize.MatchKey(e.DisplayName)
			if key == "" {
				continue
			}
			idx.entries = append(idx.entries, indexedEntry{id: e.ID, tokens: sortedTokens(key)})
		}
	}
	return idx
}

// Len reports the number of indexed display names.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Resolve returns the guide id best matching name, or "" when nothing scores
// at least AcceptThreshold.
func (idx *Index) Resolve(name string) string {
	return idx.Match(name).ID
}

// Match scans the index for name. The first entry scoring at least
// ConfidentThreshold wins outright; otherwise the first entry with the
// highest score wins if it reaches AcceptThreshold.
func (idx *Index) Match(name string) Match {
	none := Match{Outcome: OutcomeNone}
	if idx.Len() == 0 {
		return none
	}
	q := sortedTokens(normalize.MatchKey(name))
	if len(q) == 0 {
		return none
	}

	bestScore, bestID := 0, ""
	for _, e := range idx.entries {
		// entries that cannot reach AcceptThreshold or beat the current
		// best never change the result
		bound := ratioBound(len(q), len(e.tokens))
		if bound < AcceptThreshold || bound <= bestScore {
			continue
		}
		score := ratio(q, e.tokens)
		if score >= ConfidentThreshold {
			return Match{ID: e.id, Score: score, Outcome: OutcomeConfident}
		}
		if score > bestScore {
			bestScore, bestID = score, e.id
		}
	}
	if bestScore >= AcceptThreshold {
		return Match{ID: bestID, Score: bestScore, Outcome: OutcomeAccepted}
	}
	return Match{Score: bestScore, Outcome: OutcomeNone}
}

// Resolve is a convenience for a one-off lookup against docs.
func Resolve(name string, docs []*Document) string {
	return NewIndex(docs...).Resolve(name)
}
