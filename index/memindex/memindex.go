// Package memindex is an in-memory implementation of the index interfaces.
//
// Postings are roaring bitmaps keyed by encoded term. Segments are meant to
// be populated by one goroutine and then read concurrently.
package memindex

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fvcache/index"
)

type field struct {
	info     index.FieldInfo
	postings map[string]*roaring.Bitmap
	column   map[int]int64
}

// Segment is a mutable in-memory segment.
type Segment struct {
	id     index.SegmentID
	maxDoc int

	mu     sync.RWMutex
	fields map[string]*field

	termsRequests sync.Map // field -> *atomic.Int64
}

// NewSegment creates an empty segment with maxDoc documents.
func NewSegment(id index.SegmentID, maxDoc int) *Segment {
	return &Segment{
		id:     id,
		maxDoc: maxDoc,
		fields: make(map[string]*field),
	}
}

func (s *Segment) field(name string, typ index.ValueType) *field {
	f, ok := s.fields[name]
	if !ok {
		f = &field{
			info:     index.FieldInfo{Name: name, Type: typ},
			postings: make(map[string]*roaring.Bitmap),
		}
		s.fields[name] = f
	}
	if f.info.Type != typ {
		panic(fmt.Sprintf("memindex: field %q is %s, not %s", name, f.info.Type, typ))
	}
	return f
}

func (s *Segment) checkDoc(doc int) {
	if doc < 0 || doc >= s.maxDoc {
		panic(fmt.Sprintf("memindex: doc %d out of range [0,%d)", doc, s.maxDoc))
	}
}

// AddTerm indexes raw term bytes for doc under a field of the given type.
func (s *Segment) AddTerm(name string, typ index.ValueType, term []byte, doc int) {
	s.checkDoc(doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.field(name, typ)
	bm, ok := f.postings[string(term)]
	if !ok {
		bm = roaring.New()
		f.postings[string(term)] = bm
	}
	bm.Add(uint32(doc))

	if f.column != nil {
		f.column[doc] = columnValue(typ, term)
	}
}

// AddInt indexes v for doc.
func (s *Segment) AddInt(name string, doc int, v int32) {
	s.AddTerm(name, index.TypeInt, index.EncodeInt(v), doc)
}

// AddLong indexes v for doc.
func (s *Segment) AddLong(name string, doc int, v int64) {
	s.AddTerm(name, index.TypeLong, index.EncodeLong(v), doc)
}

// AddFloat indexes v for doc.
func (s *Segment) AddFloat(name string, doc int, v float32) {
	s.AddTerm(name, index.TypeFloat, index.EncodeFloat(v), doc)
}

// AddDouble indexes v for doc.
func (s *Segment) AddDouble(name string, doc int, v float64) {
	s.AddTerm(name, index.TypeDouble, index.EncodeDouble(v), doc)
}

// AddString indexes v for doc.
func (s *Segment) AddString(name string, doc int, v string) {
	s.AddTerm(name, index.TypeString, []byte(v), doc)
}

// EnableDocValues declares a numeric field as natively columnar. Values added
// before and after the call are visible through NumericDocValues.
func (s *Segment) EnableDocValues(name string, typ index.ValueType) {
	if !typ.Numeric() {
		panic(fmt.Sprintf("memindex: doc values need a numeric type, got %s", typ))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.field(name, typ)
	f.info.HasDocValues = true
	if f.column == nil {
		f.column = make(map[int]int64)
		for term, bm := range f.postings {
			v := columnValue(typ, []byte(term))
			it := bm.Iterator()
			for it.HasNext() {
				f.column[int(it.Next())] = v
			}
		}
	}
}

func columnValue(typ index.ValueType, term []byte) int64 {
	switch typ {
	case index.TypeInt:
		v, _ := index.DecodeInt(term)
		return int64(v)
	case index.TypeLong:
		v, _ := index.DecodeLong(term)
		return v
	case index.TypeFloat:
		v, _ := index.DecodeFloat(term)
		return int64(math.Float32bits(v))
	case index.TypeDouble:
		v, _ := index.DecodeDouble(term)
		return int64(math.Float64bits(v))
	default:
		return 0
	}
}

// ID implements index.Segment.
func (s *Segment) ID() index.SegmentID {
	return s.id
}

// MaxDoc implements index.Segment.
func (s *Segment) MaxDoc() int {
	return s.maxDoc
}

// FieldInfo implements index.Segment.
func (s *Segment) FieldInfo(name string) (index.FieldInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[name]
	if !ok {
		return index.FieldInfo{}, false
	}
	return f.info, true
}

// Terms implements index.Segment. The enumeration is a snapshot of the
// terms present at the time of the call.
func (s *Segment) Terms(name string) (index.TermsEnum, error) {
	counter, _ := s.termsRequests.LoadOrStore(name, new(atomic.Int64))
	counter.(*atomic.Int64).Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[name]
	if !ok || len(f.postings) == 0 {
		return nil, nil
	}

	terms := make([][]byte, 0, len(f.postings))
	postings := make([]*roaring.Bitmap, 0, len(f.postings))
	for term := range f.postings {
		terms = append(terms, []byte(term))
	}
	slices.SortFunc(terms, bytes.Compare)
	for _, term := range terms {
		postings = append(postings, f.postings[string(term)].Clone())
	}

	return &termsEnum{terms: terms, postings: postings, pos: -1}, nil
}

// TermsRequests returns how many times Terms was called for a field.
func (s *Segment) TermsRequests(name string) int64 {
	counter, ok := s.termsRequests.Load(name)
	if !ok {
		return 0
	}
	return counter.(*atomic.Int64).Load()
}

// NumericDocValues implements index.Segment.
func (s *Segment) NumericDocValues(name string) (index.NumericDocValues, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.fields[name]
	if !ok || f.column == nil {
		return nil, nil
	}
	return column(maps.Clone(f.column)), nil
}

type column map[int]int64

func (c column) Get(doc int) (int64, bool) {
	v, ok := c[doc]
	return v, ok
}

type termsEnum struct {
	terms    [][]byte
	postings []*roaring.Bitmap
	pos      int
}

func (e *termsEnum) Next() ([]byte, error) {
	e.pos++
	if e.pos >= len(e.terms) {
		return nil, nil
	}
	return e.terms[e.pos], nil
}

func (e *termsEnum) DocFreq() int {
	return int(e.postings[e.pos].GetCardinality())
}

func (e *termsEnum) Postings() (index.PostingsIterator, error) {
	return &postingsIterator{it: e.postings[e.pos].Iterator()}, nil
}

type postingsIterator struct {
	it roaring.IntPeekable
}

func (p *postingsIterator) NextDoc() (int, error) {
	if !p.it.HasNext() {
		return index.NoMoreDocs, nil
	}
	return int(p.it.Next()), nil
}

// Reader is an immutable list of segments at one generation.
type Reader struct {
	generation uint64
	segments   []index.Segment
}

// NewReader creates a reader over segs.
func NewReader(generation uint64, segs ...*Segment) *Reader {
	r := &Reader{generation: generation, segments: make([]index.Segment, len(segs))}
	for i, s := range segs {
		r.segments[i] = s
	}
	return r
}

// Generation implements index.Reader.
func (r *Reader) Generation() uint64 {
	return r.generation
}

// Segments implements index.Reader.
func (r *Reader) Segments() []index.Segment {
	return r.segments
}
