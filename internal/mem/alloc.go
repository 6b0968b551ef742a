package mem

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/fvcache/internal/mmap"
	"github.com/hupe1980/fvcache/internal/resource"
)

// DefaultOffHeapThreshold is the smallest block size placed in an anonymous mapping.
const DefaultOffHeapThreshold = 16 * 1024

// Stats tracks allocator usage.
type Stats struct {
	LiveBlocks   int64 // Current: blocks not yet freed
	LiveBytes    int64 // Current: accounted bytes of live blocks
	OffHeapBytes int64 // Current: accounted bytes held in mappings
	TotalAllocs  int64 // Historical: total allocations
	TotalFrees   int64 // Historical: total frees
}

// Allocator hands out Blocks and accounts them against a resource.Controller.
// It is safe for concurrent use.
type Allocator struct {
	rc               *resource.Controller
	offHeapThreshold int

	liveBlocks   atomic.Int64
	liveBytes    atomic.Int64
	offHeapBytes atomic.Int64
	totalAllocs  atomic.Int64
	totalFrees   atomic.Int64
}

// Option is a configuration option for Allocator.
type Option func(*Allocator)

// WithResourceController accounts every block against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(a *Allocator) {
		a.rc = rc
	}
}

// WithOffHeapThreshold sets the smallest block size that is mmap-backed.
// A threshold of 0 places every block off-heap; a negative threshold disables mappings.
func WithOffHeapThreshold(n int) Option {
	return func(a *Allocator) {
		a.offHeapThreshold = n
	}
}

// NewAllocator creates an Allocator.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{offHeapThreshold: DefaultOffHeapThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Block is a zeroed, fixed-size region of memory with a single owner.
type Block struct {
	data     []byte
	reserved int64
	mapping  *mmap.Mapping
	alloc    *Allocator
	freed    atomic.Bool
}

// Alloc returns a zeroed block of size bytes.
// A size of zero returns an empty block that still has to be freed.
func (a *Allocator) Alloc(size int) (*Block, error) {
	if size < 0 {
		return nil, fmt.Errorf("mem: negative block size %d", size)
	}

	b := &Block{alloc: a}
	if size == 0 {
		a.track(b)
		return b, nil
	}

	offHeap := a.offHeapThreshold >= 0 && size >= a.offHeapThreshold
	reserved := int64(size)
	if offHeap {
		page := mmap.PageSize()
		reserved = int64((size + page - 1) / page * page)
	}

	if err := a.rc.AcquireMemory(reserved); err != nil {
		return nil, fmt.Errorf("mem: allocate %d bytes: %w", size, err)
	}

	if offHeap {
		m, err := mmap.MapAnon(int(reserved))
		if err != nil {
			a.rc.ReleaseMemory(reserved)
			return nil, fmt.Errorf("mem: map %d bytes: %w", reserved, err)
		}
		b.mapping = m
		b.data = m.Bytes()[:size:size]
		a.offHeapBytes.Add(reserved)
	} else {
		b.data = heapBytes(size)
	}
	b.reserved = reserved

	a.track(b)
	return b, nil
}

func (a *Allocator) track(b *Block) {
	a.liveBlocks.Add(1)
	a.liveBytes.Add(b.reserved)
	a.totalAllocs.Add(1)
}

// Stats returns the current allocator statistics.
func (a *Allocator) Stats() Stats {
	return Stats{
		LiveBlocks:   a.liveBlocks.Load(),
		LiveBytes:    a.liveBytes.Load(),
		OffHeapBytes: a.offHeapBytes.Load(),
		TotalAllocs:  a.totalAllocs.Load(),
		TotalFrees:   a.totalFrees.Load(),
	}
}

// Bytes returns the block's memory. It must not be used after Free.
func (b *Block) Bytes() []byte {
	return b.data
}

// Len returns the usable size of the block in bytes.
func (b *Block) Len() int {
	return len(b.data)
}

// SizeInBytes returns the accounted size, including page rounding.
func (b *Block) SizeInBytes() int64 {
	return b.reserved
}

// OffHeap reports whether the block lives in an anonymous mapping.
func (b *Block) OffHeap() bool {
	return b.mapping != nil
}

// Free releases the block. Calling Free twice panics.
func (b *Block) Free() {
	if b.freed.Swap(true) {
		panic("mem: block freed twice")
	}

	a := b.alloc
	if b.mapping != nil {
		// Unmapping anonymous memory only fails on invalid arguments,
		// which would mean the mapping was corrupted.
		if err := b.mapping.Close(); err != nil {
			panic(fmt.Sprintf("mem: unmap block: %v", err))
		}
		a.offHeapBytes.Add(-b.reserved)
	}
	b.data = nil

	a.rc.ReleaseMemory(b.reserved)
	a.liveBlocks.Add(-1)
	a.liveBytes.Add(-b.reserved)
	a.totalFrees.Add(1)
}
