// Package uninvert builds forward (doc → value) arrays from a segment's
// inverted index in one pass over its sorted terms.
//
// Scan drives the pass and tracks which documents have a value; Numeric
// uses it to fill a full-width scratch array and compute FieldStats.
// Because terms arrive in ascending order, the first and last visited values
// are the field's minimum and maximum.
package uninvert
