// Package canon serializes signal payloads to canonical JSON.
//
// Journal rows and golden traces store payload data as bytes, so two runs
// that carry the same data must produce byte-identical output regardless of
// map iteration order or Unicode composition. The encoding follows RFC 8785
// for the value types that scenario files and callers actually produce:
//   - object keys sorted by UTF-16 code units, not UTF-8 bytes
//   - strings NFC normalized, no HTML escaping
//   - integers only; integral floats are written as integers
//   - null permitted (payloads are optional)
//
// Non-integral floats are rejected with ErrFloat. Callers that must record
// arbitrary data fall back to encoding/json (see store.EncodeData).
package canon
