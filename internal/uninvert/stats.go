package uninvert

import (
	"fmt"
	"math"

	"github.com/hupe1980/fvcache/index"
)

// FieldStats summarizes one field in one segment.
type FieldStats struct {
	Type index.ValueType
	// First and Last are the raw values of the first and last visited terms.
	// Float and double fields hold IEEE-754 bits.
	First, Last int64
	// FirstTerm and LastTerm are the smallest and largest terms (copies).
	FirstTerm, LastTerm []byte
	// DocsWithField counts documents that have at least one term.
	DocsWithField int
	// UniqueValues counts distinct terms.
	UniqueValues int
}

// Empty reports whether the field had no terms.
func (s FieldStats) Empty() bool {
	return s.UniqueValues == 0
}

// MinLong returns the smallest value of an int or long field.
func (s FieldStats) MinLong() int64 { return s.First }

// MaxLong returns the largest value of an int or long field.
func (s FieldStats) MaxLong() int64 { return s.Last }

// MinDouble returns the smallest value of a numeric field as float64.
func (s FieldStats) MinDouble() float64 { return s.asDouble(s.First) }

// MaxDouble returns the largest value of a numeric field as float64.
func (s FieldStats) MaxDouble() float64 { return s.asDouble(s.Last) }

func (s FieldStats) asDouble(raw int64) float64 {
	switch s.Type {
	case index.TypeFloat:
		return float64(math.Float32frombits(uint32(raw)))
	case index.TypeDouble:
		return math.Float64frombits(uint64(raw))
	default:
		return float64(raw)
	}
}

func (s FieldStats) String() string {
	if s.Empty() {
		return fmt.Sprintf("FieldStats{type: %s, empty}", s.Type)
	}
	if s.Type == index.TypeString {
		return fmt.Sprintf("FieldStats{type: %s, first: %q, last: %q, docs: %d, unique: %d}",
			s.Type, s.FirstTerm, s.LastTerm, s.DocsWithField, s.UniqueValues)
	}
	return fmt.Sprintf("FieldStats{type: %s, min: %v, max: %v, docs: %d, unique: %d}",
		s.Type, s.MinDouble(), s.MaxDouble(), s.DocsWithField, s.UniqueValues)
}
