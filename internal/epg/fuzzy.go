// SPDX-License-Identifier: MIT

package epg

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// sortedTokens lower-cases s, replaces everything that is not a letter or
// digit with a space and joins the sorted words with single spaces.
func sortedTokens(s string) []rune {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(fields)
	return []rune(strings.Join(fields, " "))
}

// TokenSortRatio scores the similarity of a and b in [0,100] independent of
// word order. Two strings with no letters or digits score 0.
func TokenSortRatio(a, b string) int {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// ratio is the normalized indel similarity: 100 * 2*LCS / (len(a)+len(b)).
func ratio(a, b []rune) int {
	total := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(2*lcs(a, b)) / float64(total)))
}

// ratioBound is the best score ratio could return for strings of these
// lengths.
func ratioBound(la, lb int) int {
	if la == 0 || lb == 0 {
		return 0
	}
	return int(math.Round(100 * float64(2*min(la, lb)) / float64(la+lb)))
}

// lcs returns the length of the longest common subsequence of a and b.
func lcs(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
