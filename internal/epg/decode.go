// SPDX-License-Identifier: MIT

package epg

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"golang.org/x/net/html/charset"
)

var (
	// ErrTooLarge is returned when a decompressed guide exceeds the limit.
	ErrTooLarge = errors.New("epg: guide document exceeds size limit")
	// ErrNoChannels is returned for well-formed XML without <channel> elements.
	ErrNoChannels = errors.New("epg: guide document has no channels")
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Compression identifies the transport encoding of a guide body.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionXZ   Compression = "xz"
)

// Sniff detects the compression of a guide body from its magic bytes.
func Sniff(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(head, xzMagic):
		return CompressionXZ
	default:
		return CompressionNone
	}
}

// Decode reads a plain, gzip or xz compressed XMLTV document and returns its
// channel display names. maxBytes bounds the decompressed size (0 = no limit).
// Programme elements are skipped without being materialized.
func Decode(r io.Reader, source string, maxBytes int64) (*Document, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(xzMagic))

	var body io.Reader
	switch Sniff(head) {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("epg: gzip: %w", err)
		}
		defer func() { _ = zr.Close() }()
		body = zr
	case CompressionXZ:
		zr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("epg: xz: %w", err)
		}
		body = zr
	default:
		body = br
	}

	var lr *limitedReader
	if maxBytes > 0 {
		lr = &limitedReader{r: body, n: maxBytes}
		body = lr
	}

	chans, err := decodeChannels(body)
	if err != nil {
		if lr != nil && lr.exceeded {
			return nil, ErrTooLarge
		}
		return nil, err
	}
	if len(chans) == 0 {
		return nil, ErrNoChannels
	}
	return documentFromChannels(source, chans), nil
}

func decodeChannels(r io.Reader) ([]Channel, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	// no entity expansion
	dec.Entity = make(map[string]string)

	var chans []Channel
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return chans, nil
		}
		if err != nil {
			return nil, fmt.Errorf("epg: decode xmltv: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "channel":
			var ch Channel
			if err := dec.DecodeElement(&ch, &se); err != nil {
				return nil, fmt.Errorf("epg: decode channel: %w", err)
			}
			chans = append(chans, ch)
		case "programme":
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("epg: skip programme: %w", err)
			}
		}
	}
}

// limitedReader is io.LimitReader that remembers whether the limit was hit.
type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.n <= 0 {
		// at the limit: only a clean EOF is acceptable
		var probe [1]byte
		if n, err := l.r.Read(probe[:]); n == 0 && errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		l.exceeded = true
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.r.Read(p)
	l.n -= int64(n)
	return n, err
}
