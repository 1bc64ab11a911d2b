// Package loader feeds text sources into a segment sink.
//
// A source is cut into ingestion units (segments) by one of two policies:
// sentence splitting on '.', '!' and '?' (FormatText), or one segment per
// line (FormatLines, for chat logs). Sources are local paths, file: URLs or
// http(s) URLs; remote bodies are kept in an LRU cache.
package loader

import (
	"bufio"
	"bytes"
	"strings"

	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
)

// Format selects how a source is split into segments.
type Format int

const (
	// FormatText splits on sentence-ending punctuation.
	FormatText Format = iota
	// FormatLines treats every line as one segment.
	FormatLines
)

// String returns the canonical name used in replies.
func (f Format) String() string {
	switch f {
	case FormatLines:
		return "IRC_LOG"
	default:
		return "TXT"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseFormat maps a case-insensitive name to a Format.
// Unknown names return FormatText together with an error so that callers
// can warn and carry on.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "txt", "text":
		return FormatText, nil
	case "irc_log", "irc", "lines", "log":
		return FormatLines, nil
	default:
		return FormatText, shaperrors.New(shaperrors.ErrCodeInvalidInput,
			"unknown source format: "+name, nil).
			WithSuggestion("Use txt or irc_log.")
	}
}

// SplitFunc returns the bufio.SplitFunc implementing the format. Segments
// never exceed MaxSegmentSize bytes; a longer run is cut at its last
// whitespace, or at the limit when it has none.
func (f Format) SplitFunc() bufio.SplitFunc {
	if f == FormatLines {
		return capSegments(bufio.ScanLines, MaxSegmentSize)
	}
	return capSegments(ScanSentences, MaxSegmentSize)
}

// capSegments emits a segment from a full buffer instead of letting the
// scanner fail with bufio.ErrTooLong. limit must equal the scanner's
// maximum token size.
func capSegments(split bufio.SplitFunc, limit int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := split(data, atEOF)
		if err != nil || advance > 0 || token != nil || atEOF || len(data) < limit {
			return advance, token, err
		}

		cut := bytes.LastIndexAny(data[:limit], " \t\r\n")
		if cut <= 0 {
			return limit, data[:limit], nil
		}
		return cut + 1, data[:cut], nil
	}
}

// ScanSentences is a bufio.SplitFunc that yields text up to and including
// each '.', '!' or '?'. Text after the last terminator is discarded.
func ScanSentences(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '.' || b == '!' || b == '?' {
			return i + 1, data[:i+1], nil
		}
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}
