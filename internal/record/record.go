package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"wikistream/internal/dump"
)

// RedirectMarker opens the body of every redirect stub.
const RedirectMarker = "#REDIRECT"

// Record is one output line. Field order is part of the format.
type Record struct {
	ID    *int64 `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// IsRedirect reports whether body, ignoring leading whitespace, starts with
// the redirect marker in any letter case.
func IsRedirect(body string) bool {
	trimmed := strings.TrimLeftFunc(body, unicode.IsSpace)
	if len(trimmed) < len(RedirectMarker) {
		return false
	}
	return strings.EqualFold(trimmed[:len(RedirectMarker)], RedirectMarker)
}

// FromEntry converts a raw page into a record. Title and body are kept as
// read, including empty ones.
func FromEntry(entry dump.RawEntry) Record {
	return Record{ID: entry.ID, Title: entry.Title, Text: entry.Body}
}

// Encode renders rec as a single newline-terminated JSON line. HTML
// characters are written as-is.
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(rec.Title) + len(rec.Text) + 40)
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses one line produced by Encode.
func Decode(line []byte) (Record, error) {
	var rec Record
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
