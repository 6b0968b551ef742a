// Package mem provides the block allocator behind every packed array and
// term dictionary of the field value cache.
//
// # Ownership
//
// A Block has exactly one owner, who must call Free exactly once. Freeing a
// block twice is a usage fault and panics.
//
// # Placement
//
// Blocks at or above the allocator's off-heap threshold are anonymous mmap
// regions (see internal/mmap); smaller blocks come from 64-byte aligned heap
// memory. Both placements are accounted against the resource.Controller.
package mem
