package leaf

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/refcount"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

var (
	// ErrTypeMismatch is returned when a leaf is accessed as the wrong kind,
	// e.g. ordinal access on a numeric field.
	ErrTypeMismatch = errors.New("leaf: type mismatch")
	// ErrConstruction wraps every error that aborts building a leaf.
	ErrConstruction = errors.New("leaf: construction failed")
)

// Kind identifies the leaf variant.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNumeric
	KindFloat
	KindSorted
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumeric:
		return "numeric"
	case KindFloat:
		return "float"
	case KindSorted:
		return "sorted"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Leaf is the forward index of one field in one segment.
type Leaf interface {
	Kind() Kind
	Type() index.ValueType
	MaxDoc() int
	Stats() uninvert.FieldStats
	// BitsPerValue returns the width of the per-document array, 0 for empty leaves.
	BitsPerValue() int
	// SizeInBytes returns the memory held by the leaf.
	SizeInBytes() int64

	// Numeric returns the numeric accessor or ErrTypeMismatch.
	Numeric() (NumericValues, error)
	// Sorted returns the ordinal accessor or ErrTypeMismatch.
	Sorted() (SortedValues, error)

	IncRef()
	TryIncRef() bool
	DecRef()
	Refs() int64

	sealed()
}

// NumericValues reads per-document numbers. Missing documents read as 0.
type NumericValues interface {
	Exists(doc int) bool
	Int(doc int) int32
	Long(doc int) int64
	Float(doc int) float32
	Double(doc int) float64
	// InRange reports whether doc has a value in [lo, hi].
	InRange(doc int, lo, hi int64) bool
	// InRangeDouble reports whether doc has a value in [lo, hi].
	InRangeDouble(doc int, lo, hi float64) bool
}

// SortedValues reads per-document ordinals into a sorted term dictionary.
type SortedValues interface {
	// OrdVal returns the ordinal of doc's term, or -1 when doc has none.
	OrdVal(doc int) int
	// LookupOrd returns the term of ord. The slice aliases leaf memory and is
	// valid while the caller holds a reference.
	LookupOrd(ord int) []byte
	// LookupTerm returns the ordinal of term, or -(insertion point)-1.
	LookupTerm(term []byte) int
	// NumOrds returns the number of distinct terms.
	NumOrds() int
	// Term returns doc's term, or nil when doc has none.
	Term(doc int) []byte
	Exists(doc int) bool
}

type base struct {
	refcount.Count

	typ    index.ValueType
	maxDoc int
	stats  uninvert.FieldStats
}

func (b *base) Type() index.ValueType      { return b.typ }
func (b *base) MaxDoc() int                { return b.maxDoc }
func (b *base) Stats() uninvert.FieldStats { return b.stats }
func (b *base) sealed()                    {}

func mismatch(want string, typ index.ValueType) error {
	return fmt.Errorf("%w: %s access on %s field", ErrTypeMismatch, want, typ)
}
