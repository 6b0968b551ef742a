package leaf

import (
	"fmt"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

// Options configures leaf construction.
type Options struct {
	// ArenaBlockSize is the page size of the term dictionary arena.
	// Zero selects the arena default.
	ArenaBlockSize int
}

// Build constructs the leaf of field in seg as type typ.
// Any failure is wrapped in ErrConstruction and leaves nothing allocated.
func Build(alloc *mem.Allocator, seg index.Segment, field string, typ index.ValueType, opts Options) (Leaf, error) {
	l, err := build(alloc, seg, field, typ, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: field %q segment %d: %w", ErrConstruction, field, seg.ID(), err)
	}
	return l, nil
}

func build(alloc *mem.Allocator, seg index.Segment, field string, typ index.ValueType, opts Options) (Leaf, error) {
	maxDoc := seg.MaxDoc()

	if info, ok := seg.FieldInfo(field); ok && info.Type != typ {
		return nil, fmt.Errorf("%w: field indexed as %s, requested %s", ErrTypeMismatch, info.Type, typ)
	}

	te, err := seg.Terms(field)
	if err != nil {
		return nil, err
	}

	switch {
	case typ.Numeric():
		res, err := uninvert.Numeric(alloc, te, maxDoc, typ)
		if err != nil {
			return nil, err
		}
		if res.Stats.Empty() {
			return Empty(typ, maxDoc), nil
		}
		return buildNumeric(alloc, typ, maxDoc, res)
	case typ == index.TypeString:
		return buildSorted(alloc, te, maxDoc, opts.ArenaBlockSize)
	default:
		return nil, fmt.Errorf("unsupported value type %s", typ)
	}
}
