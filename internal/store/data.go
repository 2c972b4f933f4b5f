package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/joinery/internal/canon"
)

// EncodeData serializes signal data for storage.
//
// Nil encodes as "". Values canon accepts are stored canonically so equal
// payloads compare equal in SQL. Anything else (structs, fractional floats)
// falls back to encoding/json without HTML escaping.
func EncodeData(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	if b, err := canon.Marshal(v); err == nil {
		return string(b), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeData parses stored data. "" decodes to nil. Numbers decode as
// json.Number so large integers survive.
func DecodeData(s string) (any, error) {
	if s == "" {
		return nil, nil
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return v, nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
