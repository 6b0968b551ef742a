package leaf

import (
	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

// emptyLeaf stands for a field without terms in a segment.
type emptyLeaf struct {
	base
}

// Empty returns a leaf reporting every document as missing.
func Empty(typ index.ValueType, maxDoc int) Leaf {
	l := &emptyLeaf{base: base{typ: typ, maxDoc: maxDoc, stats: uninvert.FieldStats{Type: typ}}}
	l.Init(nil)
	return l
}

func (l *emptyLeaf) Kind() Kind         { return KindEmpty }
func (l *emptyLeaf) BitsPerValue() int  { return 0 }
func (l *emptyLeaf) SizeInBytes() int64 { return 0 }

func (l *emptyLeaf) Numeric() (NumericValues, error) {
	if !l.typ.Numeric() {
		return nil, mismatch("numeric", l.typ)
	}
	return emptyValues{}, nil
}

func (l *emptyLeaf) Sorted() (SortedValues, error) {
	if l.typ != index.TypeString {
		return nil, mismatch("sorted", l.typ)
	}
	return emptyValues{}, nil
}

type emptyValues struct{}

func (emptyValues) Exists(int) bool                          { return false }
func (emptyValues) Int(int) int32                            { return 0 }
func (emptyValues) Long(int) int64                           { return 0 }
func (emptyValues) Float(int) float32                        { return 0 }
func (emptyValues) Double(int) float64                       { return 0 }
func (emptyValues) InRange(int, int64, int64) bool           { return false }
func (emptyValues) InRangeDouble(int, float64, float64) bool { return false }
func (emptyValues) OrdVal(int) int                           { return -1 }
func (emptyValues) NumOrds() int                             { return 0 }
func (emptyValues) LookupTerm([]byte) int                    { return -1 }
func (emptyValues) Term(int) []byte                          { return nil }

func (emptyValues) LookupOrd(ord int) []byte {
	panic(outOfRange(ord, 0))
}
