// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	t.Setenv("V2M3U_TEST_STRING", "value")
	t.Setenv("V2M3U_TEST_EMPTY", "")

	assert.Equal(t, "value", ParseString("V2M3U_TEST_STRING", "def"))
	assert.Equal(t, "def", ParseString("V2M3U_TEST_EMPTY", "def"))
	assert.Equal(t, "def", ParseString("V2M3U_TEST_UNSET", "def"))
}

func TestParseIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("V2M3U_TEST_INT", "12")
	assert.Equal(t, 12, ParseInt("V2M3U_TEST_INT", 3))

	t.Setenv("V2M3U_TEST_INT", "twelve")
	assert.Equal(t, 3, ParseInt("V2M3U_TEST_INT", 3))
}

func TestParseBool(t *testing.T) {
	for raw, want := range map[string]bool{
		"true": true, "1": true, "YES": true,
		"false": false, "0": false, "no": false,
		"maybe": true,
	} {
		t.Setenv("V2M3U_TEST_BOOL", raw)
		assert.Equal(t, want, ParseBool("V2M3U_TEST_BOOL", true), raw)
	}
}

func TestParseDurationAndFloat(t *testing.T) {
	t.Setenv("V2M3U_TEST_DUR", "90s")
	t.Setenv("V2M3U_TEST_FLOAT", "0.25")
	assert.Equal(t, 90*time.Second, ParseDuration("V2M3U_TEST_DUR", time.Second))
	assert.Equal(t, 0.25, ParseFloat("V2M3U_TEST_FLOAT", 1))

	t.Setenv("V2M3U_TEST_DUR", "soon")
	assert.Equal(t, time.Second, ParseDuration("V2M3U_TEST_DUR", time.Second))
}

func TestParseList(t *testing.T) {
	def := []string{"https://vavoo.to"}

	t.Setenv("V2M3U_TEST_LIST", " a , ,b,")
	assert.Equal(t, []string{"a", "b"}, ParseList("V2M3U_TEST_LIST", def))

	t.Setenv("V2M3U_TEST_LIST", "  ")
	assert.Equal(t, def, ParseList("V2M3U_TEST_LIST", def))
}
