// SPDX-License-Identifier: MIT

// Package epg loads XMLTV guide documents and resolves channel names to
// guide identifiers.
package epg

// Channel is the subset of an XMLTV <channel> element used for matching.
type Channel struct {
	ID          string   `xml:"id,attr"`
	DisplayName []string `xml:"display-name"`
	Icon        *Icon    `xml:"icon,omitempty"`
}

// Icon is an XMLTV channel icon.
type Icon struct {
	Src string `xml:"src,attr"`
}

// Entry pairs one display name with the guide identifier it belongs to.
type Entry struct {
	DisplayName string
	ID          string
}

// Document is a parsed guide feed. It is read-only once loaded.
type Document struct {
	Source  string
	Entries []Entry
}

// documentFromChannels flattens channels into entries. A channel with
// several display names contributes one entry per name, in document order.
func documentFromChannels(source string, chans []Channel) *Document {
	doc := &Document{Source: source, Entries: make([]Entry, 0, len(chans))}
	for _, ch := range chans {
		for _, name := range ch.DisplayName {
			doc.Entries = append(doc.Entries, Entry{DisplayName: name, ID: ch.ID})
		}
	}
	return doc
}
