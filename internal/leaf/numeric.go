package leaf

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/packed"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

// numericLeaf holds int and long values as value-offset.
type numericLeaf struct {
	base

	values packed.Array
	offset int64
	docs   *roaring.Bitmap
}

func (l *numericLeaf) Kind() Kind                      { return KindNumeric }
func (l *numericLeaf) BitsPerValue() int               { return l.values.BitsPerValue() }
func (l *numericLeaf) Numeric() (NumericValues, error) { return l, nil }
func (l *numericLeaf) Sorted() (SortedValues, error)   { return nil, mismatch("sorted", l.typ) }

func (l *numericLeaf) SizeInBytes() int64 {
	return l.values.SizeInBytes() + bitmapSize(l.docs)
}

func (l *numericLeaf) Long(doc int) int64 {
	return l.values.Get(doc) + l.offset
}

func (l *numericLeaf) Exists(doc int) bool {
	if l.Long(doc) != 0 {
		return true
	}
	return l.docs != nil && l.docs.Contains(uint32(doc))
}

func (l *numericLeaf) Int(doc int) int32      { return int32(l.Long(doc)) }
func (l *numericLeaf) Float(doc int) float32  { return float32(l.Long(doc)) }
func (l *numericLeaf) Double(doc int) float64 { return float64(l.Long(doc)) }

func (l *numericLeaf) InRange(doc int, lo, hi int64) bool {
	v := l.Long(doc)
	if v < lo || v > hi {
		return false
	}
	return v != 0 || l.Exists(doc)
}

func (l *numericLeaf) InRangeDouble(doc int, lo, hi float64) bool {
	v := float64(l.Long(doc))
	if v < lo || v > hi {
		return false
	}
	return v != 0 || l.Exists(doc)
}

func (l *numericLeaf) free() {
	l.values.Free()
	l.docs = nil
}

// floatLeaf holds float and double values as IEEE-754 bits.
type floatLeaf struct {
	base

	values packed.Array
	docs   *roaring.Bitmap
}

func (l *floatLeaf) Kind() Kind                      { return KindFloat }
func (l *floatLeaf) BitsPerValue() int               { return l.values.BitsPerValue() }
func (l *floatLeaf) Numeric() (NumericValues, error) { return l, nil }
func (l *floatLeaf) Sorted() (SortedValues, error)   { return nil, mismatch("sorted", l.typ) }

func (l *floatLeaf) SizeInBytes() int64 {
	return l.values.SizeInBytes() + bitmapSize(l.docs)
}

func (l *floatLeaf) Double(doc int) float64 {
	raw := l.values.Get(doc)
	if l.typ == index.TypeFloat {
		return float64(math.Float32frombits(uint32(raw)))
	}
	return math.Float64frombits(uint64(raw))
}

func (l *floatLeaf) Exists(doc int) bool {
	if l.values.Get(doc) != 0 {
		return true
	}
	return l.docs != nil && l.docs.Contains(uint32(doc))
}

func (l *floatLeaf) Int(doc int) int32     { return int32(l.Double(doc)) }
func (l *floatLeaf) Long(doc int) int64    { return int64(l.Double(doc)) }
func (l *floatLeaf) Float(doc int) float32 { return float32(l.Double(doc)) }

func (l *floatLeaf) InRange(doc int, lo, hi int64) bool {
	return l.InRangeDouble(doc, float64(lo), float64(hi))
}

func (l *floatLeaf) InRangeDouble(doc int, lo, hi float64) bool {
	v := l.Double(doc)
	if v < lo || v > hi {
		return false
	}
	return l.Exists(doc)
}

func (l *floatLeaf) free() {
	l.values.Free()
	l.docs = nil
}

func bitmapSize(bm *roaring.Bitmap) int64 {
	if bm == nil {
		return 0
	}
	return int64(bm.GetSizeInBytes())
}

// bias returns the width and offset for repacking values in [first, last].
// Zero is always inside the packed range. ok is false when the scratch
// array must be kept as is.
func bias(typ index.ValueType, first, last int64) (width int, offset int64, ok bool) {
	lo, hi := min(0, first), max(0, last)
	span := uint64(hi) - uint64(lo)
	switch {
	case span < 1<<8:
		return 8, 128 + lo, true
	case span < 1<<16:
		return 16, 32768 + lo, true
	case typ == index.TypeLong && span < 1<<32:
		return 32, (1 << 31) + lo, true
	default:
		return 0, 0, false
	}
}

// buildNumeric turns an uninverted scratch array into a numeric or float
// leaf. The scratch array is consumed: either transferred into the leaf or
// freed.
func buildNumeric(alloc *mem.Allocator, typ index.ValueType, maxDoc int, res *uninvert.Result) (Leaf, error) {
	scratch := res.Values
	b := base{typ: typ, maxDoc: maxDoc, stats: res.Stats}

	if typ == index.TypeFloat || typ == index.TypeDouble {
		l := &floatLeaf{base: b, values: scratch, docs: res.DocsWithField}
		l.Init(l.free)
		return l, nil
	}

	width, offset, ok := bias(typ, res.Stats.First, res.Stats.Last)
	if !ok {
		l := &numericLeaf{base: b, values: scratch, docs: res.DocsWithField}
		l.Init(l.free)
		return l, nil
	}

	defer scratch.Free()

	values, err := packed.New(alloc, maxDoc, width)
	if err != nil {
		return nil, fmt.Errorf("repack to %d bits: %w", width, err)
	}
	for doc := range maxDoc {
		values.Set(doc, scratch.Get(doc)-offset)
	}

	l := &numericLeaf{base: b, values: values, offset: offset, docs: res.DocsWithField}
	l.Init(l.free)
	return l, nil
}
