package fvcache

import (
	"context"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fvcache/index"
)

// LongRange returns the documents of segment whose int or long value of
// field lies in [lo, hi]. Segments whose value range does not overlap
// [lo, hi] are answered without reading any document.
func (q *Query) LongRange(ctx context.Context, field string, typ index.ValueType, segment int, lo, hi int64) (*roaring.Bitmap, error) {
	if typ == index.TypeFloat || typ == index.TypeDouble {
		return q.DoubleRange(ctx, field, typ, segment, float64(lo), float64(hi))
	}

	l, err := q.leaf(ctx, field, typ, segment)
	if err != nil {
		return nil, err
	}
	nv, err := l.Numeric()
	if err != nil {
		return nil, fieldError(field, segment, err)
	}

	out := roaring.New()
	st := l.Stats()
	if lo > hi || st.Empty() || hi < st.MinLong() || lo > st.MaxLong() {
		return out, nil
	}
	for doc := range l.MaxDoc() {
		if nv.InRange(doc, lo, hi) {
			out.Add(uint32(doc))
		}
	}
	return out, nil
}

// DoubleRange returns the documents of segment whose numeric value of field
// lies in [lo, hi]. NaN bounds match nothing.
func (q *Query) DoubleRange(ctx context.Context, field string, typ index.ValueType, segment int, lo, hi float64) (*roaring.Bitmap, error) {
	l, err := q.leaf(ctx, field, typ, segment)
	if err != nil {
		return nil, err
	}
	nv, err := l.Numeric()
	if err != nil {
		return nil, fieldError(field, segment, err)
	}

	st := l.Stats()
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi || st.Empty() || hi < st.MinDouble() || lo > st.MaxDouble() {
		return roaring.New(), nil
	}
	out := roaring.New()
	for doc := range l.MaxDoc() {
		if nv.InRangeDouble(doc, lo, hi) {
			out.Add(uint32(doc))
		}
	}
	return out, nil
}

// TermRange returns the documents of segment whose string value of field
// lies between lo and hi. A nil bound is open. includeLo and includeHi
// select closed bounds.
func (q *Query) TermRange(ctx context.Context, field string, segment int, lo, hi []byte, includeLo, includeHi bool) (*roaring.Bitmap, error) {
	sv, err := q.Sorted(ctx, field, segment)
	if err != nil {
		return nil, err
	}

	out := roaring.New()
	loOrd, hiOrd := 0, sv.NumOrds()-1
	if lo != nil {
		loOrd = ceilOrd(sv, lo, includeLo)
	}
	if hi != nil {
		hiOrd = floorOrd(sv, hi, includeHi)
	}
	if loOrd > hiOrd {
		return out, nil
	}

	for doc := range q.reader.Segments()[segment].MaxDoc() {
		if ord := sv.OrdVal(doc); ord >= loOrd && ord <= hiOrd {
			out.Add(uint32(doc))
		}
	}
	return out, nil
}

// ceilOrd returns the smallest ordinal whose term is above lo (or equal
// when inclusive).
func ceilOrd(sv SortedValues, lo []byte, inclusive bool) int {
	ord := sv.LookupTerm(lo)
	if ord < 0 {
		return -ord - 1
	}
	if !inclusive {
		ord++
	}
	return ord
}

// floorOrd returns the largest ordinal whose term is below hi (or equal
// when inclusive).
func floorOrd(sv SortedValues, hi []byte, inclusive bool) int {
	ord := sv.LookupTerm(hi)
	if ord < 0 {
		return -ord - 2
	}
	if !inclusive {
		ord--
	}
	return ord
}
