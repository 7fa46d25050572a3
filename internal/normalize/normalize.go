// SPDX-License-Identifier: MIT

// Package normalize cleans provider channel names and folds names into
// comparison keys.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	unorm "golang.org/x/text/unicode/norm"
)

var (
	// decoration matches the tags the provider catalog appends to names:
	// quality/language pipes (|E, |H), numeric feed markers ((6), (7)) and
	// dotted single-letter suffixes (.c, .s). Surrounding whitespace is
	// consumed with the token.
	decoration = regexp.MustCompile(`\s*(\|[EH]\b|\([67]\)|\.[cs]\b)\s*`)
	space      = regexp.MustCompile(`\s+`)
)

// ChannelName strips decoration tokens from a raw provider name and
// collapses the remaining whitespace. It is pure, total and idempotent.
func ChannelName(raw string) string {
	s := raw
	for {
		before := s
		s = decoration.ReplaceAllString(s, "")
		s = strings.TrimSpace(space.ReplaceAllString(s, " "))
		if s == before {
			return s
		}
	}
}

// MatchKey folds a display name for fuzzy comparison: NFC, lower case,
// whitespace collapsed.
func MatchKey(s string) string {
	s = unorm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	// lower casing may produce new combining sequences
	s = unorm.NFC.String(s)
	return strings.TrimSpace(space.ReplaceAllString(s, " "))
}

// Token normalizes a string token for matching:
// - trims Unicode whitespace + invisible edge characters
// - lowercases for case-insensitive comparisons
func Token(s string) string {
	return strings.ToLower(strings.TrimFunc(s, isInvisible))
}

// Country trims a raw country label the same way Token does but keeps the
// original casing; blank input yields "".
func Country(s string) string {
	return strings.TrimFunc(s, isInvisible)
}

func isInvisible(r rune) bool {
	return unicode.IsSpace(r) ||
		r == '\u200B' || // Zero Width Space
		r == '\u200C' || // Zero Width Non-Joiner
		r == '\u200D' || // Zero Width Joiner
		r == '\uFEFF' // Zero Width Non-Breaking Space (BOM)
}
