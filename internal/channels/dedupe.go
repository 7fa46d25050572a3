// SPDX-License-Identifier: MIT

package channels

import (
	"fmt"
	"strconv"

	"github.com/ManuGH/v2m3u/internal/normalize"
)

// Policy selects how entries sharing a name inside one country are handled.
type Policy string

const (
	// PolicyDrop keeps the first entry of a name and discards the rest.
	PolicyDrop Policy = "drop"
	// PolicyDisambiguate keeps every entry and suffixes names with the
	// carrier tag: "Name (TAG)", "Name (TAG2)", "Name (TAG3)", ...
	PolicyDisambiguate Policy = "disambiguate"
)

// ParsePolicy parses a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(normalize.Token(s)); p {
	case PolicyDrop, PolicyDisambiguate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown dedup policy %q (want %q or %q)", s, PolicyDrop, PolicyDisambiguate)
	}
}

// Dedupe applies policy to the entries of one country group. The result is
// stable with respect to input order and names in it are unique. Unknown
// policies behave like PolicyDisambiguate.
func Dedupe(entries []Entry, policy Policy) []Entry {
	if policy == PolicyDrop {
		return dropDuplicates(entries)
	}
	return disambiguate(entries)
}

func dropDuplicates(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.BaseName]; dup {
			continue
		}
		seen[e.BaseName] = struct{}{}
		out = append(out, e)
	}
	return out
}

func disambiguate(entries []Entry) []Entry {
	counts := make(map[string]int, len(entries))
	used := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		counts[e.BaseName]++
		n := counts[e.BaseName]
		name := suffixed(e.BaseName, e.CarrierTag, n)
		// a raw name may already look like a suffixed one
		for {
			if _, taken := used[name]; !taken {
				break
			}
			n++
			name = suffixed(e.BaseName, e.CarrierTag, n)
		}
		used[name] = struct{}{}
		e.Name = name
		out = append(out, e)
	}
	return out
}

func suffixed(base, tag string, n int) string {
	if n <= 1 {
		return base + " (" + tag + ")"
	}
	return base + " (" + tag + strconv.Itoa(n) + ")"
}

// DedupeGroups applies Dedupe to every country group.
func DedupeGroups(groups Groups, policy Policy) Groups {
	out := make(Groups, len(groups))
	for country, entries := range groups {
		out[country] = Dedupe(entries, policy)
	}
	return out
}
