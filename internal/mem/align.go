package mem

import "unsafe"

// Alignment is the byte alignment of heap blocks, one cache line.
const Alignment = 64

// heapBytes returns size zeroed bytes starting on an Alignment boundary,
// so that views of any Word type are aligned.
func heapBytes(size int) []byte {
	buf := make([]byte, size+Alignment)
	off := int(-uintptr(unsafe.Pointer(&buf[0])) & (Alignment - 1)) //nolint:gosec // alignment arithmetic only
	return buf[off : off+size : off+size]
}

// Word is the set of element types a block can be viewed as.
type Word interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// View reinterprets the first n elements of b as a []T.
// The block must be at least n*sizeof(T) bytes long.
func View[T Word](b *Block, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	if need := n * int(unsafe.Sizeof(zero)); need > len(b.data) {
		panic("mem: view exceeds block")
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), n) //nolint:gosec // blocks are 64-byte or page aligned
}
