package uninvert

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/packed"
)

// Result is the outcome of uninverting a numeric field.
type Result struct {
	// Values is the full-width scratch array (32 bits for int/float, 64 for
	// long/double), or nil when the field has no terms. The caller owns it.
	Values packed.Array
	// DocsWithField is nil when every document has a value.
	DocsWithField *roaring.Bitmap
	Stats         FieldStats
}

// Parse converts a numeric term to its raw value: the integer itself for
// int and long, the IEEE-754 bits for float and double.
func Parse(typ index.ValueType, term []byte) (int64, error) {
	switch typ {
	case index.TypeInt:
		v, err := index.DecodeInt(term)
		return int64(v), err
	case index.TypeLong:
		return index.DecodeLong(term)
	case index.TypeFloat:
		v, err := index.DecodeFloat(term)
		return int64(int32(math.Float32bits(v))), err
	case index.TypeDouble:
		v, err := index.DecodeDouble(term)
		return int64(math.Float64bits(v)), err
	default:
		return 0, fmt.Errorf("uninvert: %s is not numeric", typ)
	}
}

// ScratchBits returns the scratch width used for typ.
func ScratchBits(typ index.ValueType) int {
	if typ == index.TypeInt || typ == index.TypeFloat {
		return 32
	}
	return 64
}

type numericVisitor struct {
	alloc  *mem.Allocator
	typ    index.ValueType
	maxDoc int

	values  packed.Array
	current int64
	first   int64
}

func (v *numericVisitor) Term(ord int, term []byte) error {
	raw, err := Parse(v.typ, term)
	if err != nil {
		return fmt.Errorf("%w: term %d (%x): %w", ErrInvalidTerm, ord, term, err)
	}
	if ord == 0 {
		arr, err := packed.New(v.alloc, v.maxDoc, ScratchBits(v.typ))
		if err != nil {
			return err
		}
		v.values = arr
		v.first = raw
	}
	v.current = raw
	return nil
}

func (v *numericVisitor) Doc(doc int) {
	v.values.Set(doc, v.current)
}

// Numeric uninverts a numeric field. On error nothing is left allocated.
func Numeric(alloc *mem.Allocator, te index.TermsEnum, maxDoc int, typ index.ValueType) (res *Result, err error) {
	if !typ.Numeric() {
		return nil, fmt.Errorf("uninvert: %s is not numeric", typ)
	}

	v := &numericVisitor{alloc: alloc, typ: typ, maxDoc: maxDoc}
	defer func() {
		if err != nil && v.values != nil {
			v.values.Free()
		}
	}()

	scan, err := Scan(te, maxDoc, typ, v)
	if err != nil {
		return nil, err
	}

	scan.Stats.First = v.first
	scan.Stats.Last = v.current
	return &Result{
		Values:        v.values,
		DocsWithField: scan.DocsWithField,
		Stats:         scan.Stats,
	}, nil
}
