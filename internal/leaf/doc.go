// Package leaf implements the per-segment forward index of one field.
//
// A Leaf is one of a closed set of variants chosen at construction time:
//
//   - empty: the field has no terms in the segment
//   - numeric: int and long values, repacked to 8, 16 or 32 bits when the
//     value range allows, with a bias offset
//   - float: float and double values in native 32 or 64-bit storage
//   - sorted: string values as ordinals into a flattened term dictionary
//
// Every Leaf is reference counted. Build returns it holding one reference;
// the backing memory is released when the last reference is dropped.
//
// Missing values follow one rule for all numeric variants: a document is
// missing when its decoded value is 0 and the validity bitmap is absent or
// does not contain the document. A nonzero value is always present.
package leaf
