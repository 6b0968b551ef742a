package packed

import (
	"fmt"
	"math/bits"

	"github.com/hupe1980/fvcache/internal/mem"
)

// Array is a fixed-width view over the index range [0, Len()).
type Array interface {
	// Get returns the value at index i, sign-extended to 64 bits.
	Get(i int) int64
	// Set stores v at index i, truncated to the array width.
	Set(i int, v int64)
	// Len returns the number of elements.
	Len() int
	// BitsPerValue returns 8, 16, 32 or 64.
	BitsPerValue() int
	// SizeInBytes returns the accounted size of the backing block.
	SizeInBytes() int64
	// Free releases the backing block.
	Free()
}

// Width returns the narrowest supported width that holds bitsNeeded signed bits.
func Width(bitsNeeded int) (int, error) {
	switch {
	case bitsNeeded <= 8:
		return 8, nil
	case bitsNeeded <= 16:
		return 16, nil
	case bitsNeeded <= 32:
		return 32, nil
	case bitsNeeded <= 64:
		return 64, nil
	default:
		return 0, fmt.Errorf("packed: %d bits exceed 64", bitsNeeded)
	}
}

// BitsRequired returns the number of signed bits needed to represent v.
func BitsRequired(v int64) int {
	if v < 0 {
		v = ^v
	}
	return bits.Len64(uint64(v)) + 1
}

// Create allocates a zeroed array of size elements using the narrowest
// backing width that covers bitsNeeded.
func Create(alloc *mem.Allocator, size, bitsNeeded int) (Array, error) {
	width, err := Width(bitsNeeded)
	if err != nil {
		return nil, err
	}
	return New(alloc, size, width)
}

// New allocates a zeroed array of size elements with an explicit width.
func New(alloc *mem.Allocator, size, width int) (Array, error) {
	if size < 0 {
		return nil, fmt.Errorf("packed: negative size %d", size)
	}

	block, err := alloc.Alloc(size * width / 8)
	if err != nil {
		return nil, err
	}

	switch width {
	case 8:
		return newDirect[int8](block, size, 8), nil
	case 16:
		return newDirect[int16](block, size, 16), nil
	case 32:
		return newDirect[int32](block, size, 32), nil
	case 64:
		return newDirect[int64](block, size, 64), nil
	default:
		block.Free()
		return nil, fmt.Errorf("packed: unsupported width %d", width)
	}
}

type word interface {
	int8 | int16 | int32 | int64
}

type direct[T word] struct {
	block  *mem.Block
	values []T
	bits   int
}

func newDirect[T word](block *mem.Block, size, bits int) *direct[T] {
	return &direct[T]{
		block:  block,
		values: mem.View[T](block, size),
		bits:   bits,
	}
}

func (a *direct[T]) Get(i int) int64 {
	return int64(a.values[i])
}

func (a *direct[T]) Set(i int, v int64) {
	a.values[i] = T(v)
}

func (a *direct[T]) Len() int {
	return len(a.values)
}

func (a *direct[T]) BitsPerValue() int {
	return a.bits
}

func (a *direct[T]) SizeInBytes() int64 {
	return a.block.SizeInBytes()
}

func (a *direct[T]) Free() {
	a.values = nil
	a.block.Free()
}

func (a *direct[T]) String() string {
	return fmt.Sprintf("packed.Array{bits: %d, len: %d}", a.bits, len(a.values))
}
