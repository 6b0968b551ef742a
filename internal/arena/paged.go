package arena

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fvcache/internal/mem"
)

const (
	// DefaultBlockSize is the default size of a block (32 KiB).
	DefaultBlockSize = 32 * 1024
	// MaxEntryLength is the longest entry a 2-byte prefix can describe.
	MaxEntryLength = 1<<15 - 1
)

var (
	// ErrEntryTooLarge is returned when an entry cannot fit in a single block.
	ErrEntryTooLarge = errors.New("arena: entry too large")
	// ErrFlattened is returned when appending to an arena that was flattened or closed.
	ErrFlattened = errors.New("arena: already flattened")
)

// Stats tracks arena usage.
type Stats struct {
	Blocks        int   // Blocks currently held
	Entries       int   // Entries appended
	BytesUsed     int64 // Prefix and payload bytes written
	BytesReserved int64 // Accounted size of held blocks
}

// Paged is an append-only store of length-prefixed byte strings.
type Paged struct {
	alloc     *mem.Allocator
	blockSize int

	blocks []*mem.Block
	used   []int // bytes written per block
	total  int64
	count  int
	done   bool
}

// NewPaged creates an arena with the given block size.
// A non-positive size selects DefaultBlockSize.
func NewPaged(alloc *mem.Allocator, blockSize int) *Paged {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Paged{alloc: alloc, blockSize: blockSize}
}

func prefixLen(n int) int {
	if n < 0x80 {
		return 1
	}
	return 2
}

// Append writes b and returns its offset in the flattened buffer.
func (p *Paged) Append(b []byte) (int64, error) {
	if p.done {
		return 0, ErrFlattened
	}

	n := len(b)
	need := prefixLen(n) + n
	if n > MaxEntryLength || need > p.blockSize {
		return 0, fmt.Errorf("%w: %d bytes (block size %d)", ErrEntryTooLarge, n, p.blockSize)
	}

	last := len(p.blocks) - 1
	if last < 0 || p.used[last]+need > p.blockSize {
		// Seal the current block and start a new one.
		blk, err := p.alloc.Alloc(p.blockSize)
		if err != nil {
			return 0, err
		}
		p.blocks = append(p.blocks, blk)
		p.used = append(p.used, 0)
		last++
	}

	buf := p.blocks[last].Bytes()
	pos := p.used[last]
	if n < 0x80 {
		buf[pos] = byte(n)
	} else {
		buf[pos] = byte(0x80 | n>>8)
		buf[pos+1] = byte(n)
	}
	copy(buf[pos+prefixLen(n):], b)

	off := p.total
	p.used[last] += need
	p.total += int64(need)
	p.count++
	return off, nil
}

// Len returns the number of entries appended.
func (p *Paged) Len() int {
	return p.count
}

// Stats returns the current arena statistics.
func (p *Paged) Stats() Stats {
	s := Stats{Blocks: len(p.blocks), Entries: p.count, BytesUsed: p.total}
	for _, blk := range p.blocks {
		s.BytesReserved += blk.SizeInBytes()
	}
	return s
}

// Flatten concatenates all blocks into one exact-size buffer and releases
// the blocks. The arena cannot be appended to afterwards.
func (p *Paged) Flatten() (*Flat, error) {
	if p.done {
		return nil, ErrFlattened
	}

	blk, err := p.alloc.Alloc(int(p.total))
	if err != nil {
		return nil, err
	}

	dst := blk.Bytes()
	pos := 0
	for i, page := range p.blocks {
		pos += copy(dst[pos:], page.Bytes()[:p.used[i]])
	}

	p.release()
	return &Flat{block: blk, data: dst, count: p.count}, nil
}

// Close releases the blocks of an arena that was not flattened.
// It is a no-op after Flatten.
func (p *Paged) Close() {
	if p.done {
		return
	}
	p.release()
}

func (p *Paged) release() {
	for _, blk := range p.blocks {
		blk.Free()
	}
	p.blocks = nil
	p.used = nil
	p.done = true
}

func (p *Paged) String() string {
	s := p.Stats()
	return fmt.Sprintf(
		"Paged{blocks: %d, entries: %d, used: %.2f KB, reserved: %.2f KB}",
		s.Blocks, s.Entries, float64(s.BytesUsed)/1024, float64(s.BytesReserved)/1024,
	)
}
