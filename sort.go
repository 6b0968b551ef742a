package fvcache

import (
	"cmp"
	"context"
	"math"

	"github.com/hupe1980/fvcache/index"
)

// SortField describes how to order documents by a field.
type SortField struct {
	Field string
	Type  index.ValueType
	// Reverse sorts descending.
	Reverse bool
	// MissingLast sorts documents without a value after all others.
	// By default they sort first.
	MissingLast bool
}

// Comparator orders the documents of one segment.
type Comparator interface {
	// Compare returns a negative number when doc a sorts before b, a
	// positive number when it sorts after, and 0 when they tie.
	Compare(a, b int) int
	// Native reports whether the comparator reads the segment's own
	// doc values instead of cached values.
	Native() bool
}

// Comparator returns a comparator for sf over segment. Fields the segment
// stores as numeric doc values are read directly; everything else is read
// through the cache.
func (q *Query) Comparator(ctx context.Context, sf SortField, segment int) (Comparator, error) {
	segs := q.reader.Segments()
	if segment < 0 || segment >= len(segs) {
		return nil, &FieldError{Field: sf.Field, Segment: segment, cause: ErrNoSegment}
	}
	seg := segs[segment]

	if info, ok := seg.FieldInfo(sf.Field); ok && info.HasDocValues && sf.Type.Numeric() {
		if info.Type != sf.Type {
			return nil, &FieldError{Field: sf.Field, Segment: segment, cause: ErrTypeMismatch}
		}
		dv, err := seg.NumericDocValues(sf.Field)
		if err != nil {
			return nil, fieldError(sf.Field, segment, err)
		}
		if dv != nil {
			q.logger.WithField(sf.Field).DebugContext(ctx, "sorting by doc values", "segment", segment)
			return &nativeComparator{dv: dv, typ: sf.Type, sf: sf}, nil
		}
	}

	if sf.Type == index.TypeString {
		sv, err := q.Sorted(ctx, sf.Field, segment)
		if err != nil {
			return nil, err
		}
		return &ordComparator{sv: sv, sf: sf}, nil
	}

	nv, err := q.Numeric(ctx, sf.Field, sf.Type, segment)
	if err != nil {
		return nil, err
	}
	return &numericComparator{nv: nv, float: sf.Type == index.TypeFloat || sf.Type == index.TypeDouble, sf: sf}, nil
}

// order applies missing-value placement and direction to a comparison of
// two present values.
func order(sf SortField, aOK, bOK bool, c int) int {
	switch {
	case !aOK && !bOK:
		return 0
	case !aOK || !bOK:
		// Missing placement is independent of direction.
		missingFirst := -1
		if sf.MissingLast {
			missingFirst = 1
		}
		if !aOK {
			return missingFirst
		}
		return -missingFirst
	}
	if sf.Reverse {
		return -c
	}
	return c
}

type numericComparator struct {
	nv    NumericValues
	float bool
	sf    SortField
}

func (c *numericComparator) Native() bool { return false }

func (c *numericComparator) Compare(a, b int) int {
	var r int
	if c.float {
		r = cmp.Compare(c.nv.Double(a), c.nv.Double(b))
	} else {
		r = cmp.Compare(c.nv.Long(a), c.nv.Long(b))
	}
	return order(c.sf, c.nv.Exists(a), c.nv.Exists(b), r)
}

type ordComparator struct {
	sv SortedValues
	sf SortField
}

func (c *ordComparator) Native() bool { return false }

func (c *ordComparator) Compare(a, b int) int {
	oa, ob := c.sv.OrdVal(a), c.sv.OrdVal(b)
	return order(c.sf, oa >= 0, ob >= 0, cmp.Compare(oa, ob))
}

type nativeComparator struct {
	dv  index.NumericDocValues
	typ index.ValueType
	sf  SortField
}

func (c *nativeComparator) Native() bool { return true }

func (c *nativeComparator) Compare(a, b int) int {
	va, aOK := c.dv.Get(a)
	vb, bOK := c.dv.Get(b)

	var r int
	switch c.typ {
	case index.TypeFloat:
		r = cmp.Compare(math.Float32frombits(uint32(va)), math.Float32frombits(uint32(vb)))
	case index.TypeDouble:
		r = cmp.Compare(math.Float64frombits(uint64(va)), math.Float64frombits(uint64(vb)))
	default:
		r = cmp.Compare(va, vb)
	}
	return order(c.sf, aOK, bOK, r)
}
