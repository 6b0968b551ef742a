// Package packed provides fixed-width signed integer arrays over off-heap blocks.
//
// Create picks the narrowest of 8, 16, 32 or 64 bits whose signed range covers
// the requested number of bits. Monotonic stores a mostly linear sequence
// (such as byte offsets into a term dictionary) as small deviations from a
// straight-line prediction.
//
// Arrays own their block; Free must be called exactly once by the owner.
// Set does not range-check values: callers size the array with Create first.
package packed
