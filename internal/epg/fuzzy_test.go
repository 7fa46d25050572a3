// SPDX-License-Identifier: MIT

package epg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical ignoring case", "sky sport 1", "Sky Sport 1", 100},
		{"word order ignored", "sport sky", "Sky Sport", 100},
		{"punctuation ignored", "rai-1", "Rai 1", 100},
		{"one substitution", "abc", "abd", 67},
		{"extra token", "rai uno hd", "rai uno", 82},
		{"empty side", "", "rai", 0},
		{"symbols only", "!!!", "???", 0},
		{"disjoint", "abc", "xyz", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TokenSortRatio(tc.a, tc.b))
			assert.Equal(t, tc.want, TokenSortRatio(tc.b, tc.a), "symmetric")
		})
	}
}

func TestRatioBoundIsUpperBound(t *testing.T) {
	pairs := [][2]string{
		{"rai uno hd", "rai uno"},
		{"canale 5", "canale cinque"},
		{"a", "abcdefgh"},
		{"sky sport 24", "sky sport uno"},
	}
	for _, p := range pairs {
		a, b := sortedTokens(p[0]), sortedTokens(p[1])
		assert.LessOrEqual(t, ratio(a, b), ratioBound(len(a), len(b)), "%q vs %q", p[0], p[1])
	}
}

func TestLCS(t *testing.T) {
	assert.Equal(t, 0, lcs([]rune(""), []rune("abc")))
	assert.Equal(t, 3, lcs([]rune("abc"), []rune("abc")))
	assert.Equal(t, 4, lcs([]rune("abcbdab"), []rune("bdcaba")))
	assert.Equal(t, 2, lcs([]rune("télé"), []rune("tl")))
}
