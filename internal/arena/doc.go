// Package arena provides the append-only byte arena behind string term dictionaries.
//
// Paged collects length-prefixed entries in fixed-size blocks without knowing
// the total size up front. Once every entry is appended, Flatten copies the
// blocks into one exact-size Flat buffer that can be binary searched, and
// releases the blocks.
//
// # Entry Format
//
//   - length < 128:    1 byte  [len]
//   - length < 32768:  2 bytes [0x80|len>>8, len&0xFF]
//
// followed by the raw bytes. Entries never span a block boundary.
//
// # Concurrency Model
//
// Paged is single-writer: one goroutine builds the dictionary. Flat is
// immutable and safe for concurrent readers.
package arena
