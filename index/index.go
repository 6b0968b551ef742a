package index

import (
	"fmt"
	"math"
)

// SegmentID identifies a segment within an index.
type SegmentID uint64

// NoMoreDocs is returned by PostingsIterator.NextDoc once the postings are exhausted.
const NoMoreDocs = math.MaxInt32

// ValueType is the value type a field is indexed with.
type ValueType uint8

const (
	TypeUnknown ValueType = iota
	TypeInt               // 32-bit signed integer
	TypeLong              // 64-bit signed integer
	TypeFloat             // 32-bit IEEE-754
	TypeDouble            // 64-bit IEEE-754
	TypeString            // raw bytes
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// Numeric reports whether t is one of the four numeric types.
func (t ValueType) Numeric() bool {
	return t >= TypeInt && t <= TypeDouble
}

// FieldInfo describes how a field is indexed in a segment.
type FieldInfo struct {
	Name string
	Type ValueType
	// HasDocValues is set when the segment already stores the field column-wise;
	// such fields bypass the uninverted cache.
	HasDocValues bool
}

// PostingsIterator walks the ascending doc IDs of one term.
type PostingsIterator interface {
	// NextDoc advances to the next document and returns it, or NoMoreDocs.
	NextDoc() (int, error)
}

// TermsEnum walks a field's terms in ascending byte order.
type TermsEnum interface {
	// Next advances to the next term. It returns nil at the end.
	// The returned slice is only valid until the next call.
	Next() ([]byte, error)
	// DocFreq returns the number of documents containing the current term.
	DocFreq() int
	// Postings returns the documents of the current term.
	Postings() (PostingsIterator, error)
}

// NumericDocValues is a natively columnar per-document numeric store.
// Float and double columns return their IEEE-754 bits.
type NumericDocValues interface {
	// Get returns the value of doc and whether the document has one.
	Get(doc int) (int64, bool)
}

// Segment is an immutable partition of the index.
type Segment interface {
	ID() SegmentID
	// MaxDoc returns the number of documents; doc IDs are in [0, MaxDoc).
	MaxDoc() int
	// FieldInfo returns the field descriptor, or false if the segment has no such field.
	FieldInfo(field string) (FieldInfo, bool)
	// Terms returns the field's terms, or nil if the field has none in this segment.
	Terms(field string) (TermsEnum, error)
	// NumericDocValues returns the field's column, or nil if it has none.
	NumericDocValues(field string) (NumericDocValues, error)
}

// Reader is a point-in-time view of an index generation.
type Reader interface {
	Generation() uint64
	// Segments returns the segments in a stable order; a segment's position
	// is its ordinal within this reader.
	Segments() []Segment
}

// MapSegments returns, for every segment of old, the ordinal of the segment
// with the same ID in cur, or -1 when it is gone. Segments are immutable, so
// an equal ID means the segment is unchanged.
func MapSegments(old, cur Reader) []int {
	pos := make(map[SegmentID]int, len(cur.Segments()))
	for i, s := range cur.Segments() {
		pos[s.ID()] = i
	}

	mapping := make([]int, len(old.Segments()))
	for i, s := range old.Segments() {
		j, ok := pos[s.ID()]
		if !ok {
			j = -1
		}
		mapping[i] = j
	}
	return mapping
}
