package arena

import (
	"github.com/hupe1980/fvcache/internal/mem"
)

// Flat is the contiguous, immutable form of a Paged arena.
type Flat struct {
	block *mem.Block
	data  []byte
	count int
}

// Entry returns the entry starting at offset.
// WARNING: The returned slice aliases the arena and is valid only until Free.
func (f *Flat) Entry(offset int64) []byte {
	b0 := f.data[offset]
	if b0&0x80 == 0 {
		start := offset + 1
		return f.data[start : start+int64(b0) : start+int64(b0)]
	}
	n := int64(b0&0x7F)<<8 | int64(f.data[offset+1])
	start := offset + 2
	return f.data[start : start+n : start+n]
}

// Len returns the number of entries.
func (f *Flat) Len() int {
	return f.count
}

// SizeInBytes returns the accounted size of the buffer.
func (f *Flat) SizeInBytes() int64 {
	return f.block.SizeInBytes()
}

// Free releases the buffer.
func (f *Flat) Free() {
	f.data = nil
	f.block.Free()
}
