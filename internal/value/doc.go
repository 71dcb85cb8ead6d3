// Package value defines the in-memory document value tree and its JSON
// text form.
//
// Value is a closed set of kinds: Null, String, Int, Float, Bool,
// Timestamp, *Map and List. Encode walks a tree with a type switch and
// appends into a caller-owned byte slice; Decode and DecodeYAML build a
// tree back from text, keeping object key order.
//
// Encoding rules:
//   - Null map entries and list elements are omitted
//   - map keys are written in insertion order
//   - only backslash and double quote are escaped in strings
//   - timestamps are bare epoch milliseconds
//   - integral floats keep a ".0" suffix
package value
