// SPDX-License-Identifier: MIT

// Package channels turns raw provider records into grouped, deduplicated
// channel entries.
package channels

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownCountry is the group key for records without a usable country.
const UnknownCountry = "Unknown"

// RawRecord is one element of a provider's /channels listing.
type RawRecord struct {
	Name    string `json:"name"`
	ID      FlexID `json:"id"`
	Country string `json:"country"`

	// Malformed marks an element that could not be decoded at all.
	Malformed bool `json:"-"`
}

// FlexID accepts both JSON strings and numbers; providers are not
// consistent about the id type.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("channel id: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// Entry is a cleaned channel ready for grouping, matching and rendering.
type Entry struct {
	// Name is the display name; after disambiguation it carries the
	// carrier suffix.
	Name string
	// BaseName is the cleaned name before any disambiguation suffix. It is
	// the dedup and guide-matching key.
	BaseName   string
	URL        string
	Origin     string
	Country    string
	CarrierTag string
	// GuideID is empty when no confident guide match was found.
	GuideID string
}

// SkipReason explains why a raw record was dropped at ingestion.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipMissingName SkipReason = "missing_name"
	SkipMissingID   SkipReason = "missing_id"
	SkipMalformed   SkipReason = "malformed"
)

// Groups maps a country to its channel entries in first-seen order.
type Groups map[string][]Entry
