// Package index defines the inverted-index collaborators the field value
// cache consumes: readers, segments, term enumerations and postings.
//
// # Term Encoding
//
// Numeric terms are indexed in a byte-sortable form so that a segment's
// ascending term order equals ascending numeric order:
//
//   - int:    4 bytes, big-endian, sign bit flipped
//   - long:   8 bytes, big-endian, sign bit flipped
//   - float:  IEEE-754 bits mapped to sortable int32 bits, then as int
//   - double: IEEE-754 bits mapped to sortable int64 bits, then as long
//
// String terms are raw bytes compared with bytes.Compare.
//
// See index/memindex for an in-memory implementation.
package index
