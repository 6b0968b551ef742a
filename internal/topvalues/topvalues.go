package topvalues

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/refcount"
	"github.com/hupe1980/fvcache/internal/slot"
)

// ErrNoSegment is returned for a segment ordinal outside the reader.
var ErrNoSegment = errors.New("topvalues: no such segment")

// TopValues holds the leaves of one field across the segments of one
// generation. It is reference counted like its leaves; dropping the last
// reference releases every built leaf.
type TopValues struct {
	refcount.Count

	fv       FieldValues
	segments []index.Segment
	cfg      *config

	mu      sync.Mutex
	slots   []*slot.Slot[leaf.Leaf]
	carried int

	ready  atomic.Int64
	builds atomic.Int64
}

func newTopValues(fv FieldValues, segments []index.Segment, cfg *config) *TopValues {
	t := &TopValues{fv: fv, segments: segments, cfg: cfg}
	t.Init(t.free)
	return t
}

// Field returns the field key.
func (t *TopValues) Field() FieldValues {
	return t.fv
}

// NumSegments returns the number of segments of the generation.
func (t *TopValues) NumSegments() int {
	return len(t.segments)
}

// Segment returns the segment at ord.
func (t *TopValues) Segment(ord int) (index.Segment, error) {
	if ord < 0 || ord >= len(t.segments) {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrNoSegment, ord, len(t.segments))
	}
	return t.segments[ord], nil
}

// Builds returns how many leaves this TopValues constructed itself.
func (t *TopValues) Builds() int64 {
	return t.builds.Load()
}

// slotLocked returns the slot of ord, growing the slot array as needed.
// The caller must hold t.mu.
func (t *TopValues) slotLocked(ord int) *slot.Slot[leaf.Leaf] {
	if ord >= len(t.slots) {
		t.slots = append(t.slots, make([]*slot.Slot[leaf.Leaf], ord+1-len(t.slots))...)
	}
	s := t.slots[ord]
	if s == nil {
		s = &slot.Slot[leaf.Leaf]{}
		t.slots[ord] = s
	}
	return s
}

// Leaf returns the leaf of segment ord, building it on first access.
// The leaf is borrowed: it stays valid while the caller holds a reference
// to t. Construction is not cancelled once started; ctx is only checked
// before waiting for or starting a build.
func (t *TopValues) Leaf(ctx context.Context, ord int) (leaf.Leaf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.Refs() <= 0 {
		panic(fmt.Sprintf("topvalues: leaf access on released %s", t.fv))
	}
	seg, err := t.Segment(ord)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	s := t.slotLocked(ord)
	t.mu.Unlock()

	l, built, err := s.Get(&t.mu, func() (leaf.Leaf, error) {
		return t.build(ctx, seg)
	})
	if built && err == nil {
		t.ready.Add(1)
	}
	return l, err
}

func (t *TopValues) build(ctx context.Context, seg index.Segment) (leaf.Leaf, error) {
	start := time.Now()
	l, err := leaf.Build(t.cfg.alloc, seg, t.fv.Field, t.fv.Type, t.cfg.leafOpts)
	elapsed := time.Since(start)
	t.builds.Add(1)

	if err != nil {
		t.cfg.logger.ErrorContext(ctx, "leaf build failed",
			"field", t.fv.Field,
			"type", t.fv.Type.String(),
			"segment", seg.ID(),
			"error", err,
		)
		t.cfg.metrics.OnBuild(t.fv, elapsed, 0, 0, err)
		return nil, err
	}

	t.cfg.logger.DebugContext(ctx, "leaf built",
		"field", t.fv.Field,
		"type", t.fv.Type.String(),
		"segment", seg.ID(),
		"kind", l.Kind().String(),
		"bits", l.BitsPerValue(),
		"bytes", l.SizeInBytes(),
		"duration", elapsed,
	)
	t.cfg.metrics.OnBuild(t.fv, elapsed, l.Kind(), l.SizeInBytes(), nil)
	return l, nil
}

// carry installs a leaf of the previous generation into the Absent slot ord.
// The leaf gains a reference owned by t.
func (t *TopValues) carry(ord int, l leaf.Leaf) {
	l.IncRef()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.slotLocked(ord).Set(l)
	t.carried++
	t.ready.Add(1)
}

// readyLeaves returns the built leaves by segment ordinal.
func (t *TopValues) readyLeaves() map[int]leaf.Leaf {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int]leaf.Leaf, len(t.slots))
	for ord, s := range t.slots {
		if s == nil {
			continue
		}
		if l, ok := s.Value(); ok {
			out[ord] = l
		}
	}
	return out
}

// SizeInBytes returns the memory held by the built leaves.
func (t *TopValues) SizeInBytes() int64 {
	var total int64
	for _, l := range t.readyLeaves() {
		total += l.SizeInBytes()
	}
	return total
}

func (t *TopValues) free() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ord, s := range t.slots {
		if s != nil && s.State() == slot.Building {
			panic(fmt.Sprintf("topvalues: %s released while segment %d is building", t.fv, ord))
		}
	}

	var bytes int64
	for _, s := range t.slots {
		if s == nil {
			continue
		}
		if l, ok := s.Reset(); ok {
			bytes += l.SizeInBytes()
			l.DecRef()
		}
	}
	t.slots = nil
	t.ready.Store(0)

	t.cfg.logger.Debug("field values released",
		"field", t.fv.Field,
		"type", t.fv.Type.String(),
		"bytes", bytes,
	)
	t.cfg.metrics.OnRelease(t.fv, bytes)
}

// Ready returns the number of segments with a built or carried leaf.
func (t *TopValues) Ready() int64 {
	return t.ready.Load()
}
