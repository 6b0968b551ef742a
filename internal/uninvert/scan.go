package uninvert

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fvcache/index"
)

var (
	// ErrInvalidTerm is returned when a term cannot be parsed as the field's type.
	ErrInvalidTerm = errors.New("uninvert: invalid term")
	// ErrDocOutOfRange is returned when postings reference a doc outside [0, maxDoc).
	ErrDocOutOfRange = errors.New("uninvert: doc out of range")
)

// Visitor receives the terms of a scan in ascending order, each followed by
// its documents.
type Visitor interface {
	// Term is called once per term with its 0-based position.
	// The term slice is only valid during the call.
	Term(ord int, term []byte) error
	// Doc is called for every document of the current term.
	Doc(doc int)
}

// ScanResult is what Scan learned about the field.
type ScanResult struct {
	// DocsWithField marks documents that have a value.
	// It is nil when every document has one (or when there were no terms).
	DocsWithField *roaring.Bitmap
	Stats         FieldStats
}

// Scan walks te, feeding v. A nil te is a field without terms.
func Scan(te index.TermsEnum, maxDoc int, typ index.ValueType, v Visitor) (ScanResult, error) {
	res := ScanResult{Stats: FieldStats{Type: typ}}
	if te == nil {
		return res, nil
	}

	var docs *roaring.Bitmap
	var last []byte
	ord := 0
	for {
		term, err := te.Next()
		if err != nil {
			return ScanResult{}, fmt.Errorf("uninvert: next term: %w", err)
		}
		if term == nil {
			break
		}

		if ord == 0 {
			res.Stats.FirstTerm = append([]byte(nil), term...)
		}
		last = append(last[:0], term...)

		if err := v.Term(ord, term); err != nil {
			return ScanResult{}, err
		}

		pi, err := te.Postings()
		if err != nil {
			return ScanResult{}, fmt.Errorf("uninvert: postings: %w", err)
		}
		for {
			doc, err := pi.NextDoc()
			if err != nil {
				return ScanResult{}, fmt.Errorf("uninvert: next doc: %w", err)
			}
			if doc == index.NoMoreDocs {
				break
			}
			if doc < 0 || doc >= maxDoc {
				return ScanResult{}, fmt.Errorf("%w: %d not in [0,%d)", ErrDocOutOfRange, doc, maxDoc)
			}
			if docs == nil {
				docs = roaring.New()
			}
			docs.Add(uint32(doc))
			v.Doc(doc)
		}
		ord++
	}

	if ord == 0 {
		return res, nil
	}

	res.Stats.LastTerm = last
	res.Stats.UniqueValues = ord
	if docs != nil {
		res.Stats.DocsWithField = int(docs.GetCardinality())
		if res.Stats.DocsWithField < maxDoc {
			docs.RunOptimize()
			res.DocsWithField = docs
		}
	}
	return res, nil
}
