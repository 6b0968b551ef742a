package leaf

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/arena"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/packed"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

// sortedLeaf maps documents to 1-based ordinals (0 = missing) into a
// flattened term dictionary.
type sortedLeaf struct {
	base

	docToOrd packed.Array
	offsets  *packed.Monotonic
	terms    *arena.Flat
}

func (l *sortedLeaf) Kind() Kind                      { return KindSorted }
func (l *sortedLeaf) BitsPerValue() int               { return l.docToOrd.BitsPerValue() }
func (l *sortedLeaf) Numeric() (NumericValues, error) { return nil, mismatch("numeric", l.typ) }
func (l *sortedLeaf) Sorted() (SortedValues, error)   { return l, nil }

func (l *sortedLeaf) SizeInBytes() int64 {
	return l.docToOrd.SizeInBytes() + l.offsets.SizeInBytes() + l.terms.SizeInBytes()
}

func (l *sortedLeaf) OrdVal(doc int) int {
	return int(l.docToOrd.Get(doc)) - 1
}

func (l *sortedLeaf) Exists(doc int) bool {
	return l.docToOrd.Get(doc) != 0
}

func (l *sortedLeaf) NumOrds() int {
	return l.terms.Len()
}

func (l *sortedLeaf) LookupOrd(ord int) []byte {
	if ord < 0 || ord >= l.offsets.Len() {
		panic(outOfRange(ord, l.offsets.Len()))
	}
	return l.terms.Entry(l.offsets.Get(ord))
}

func (l *sortedLeaf) LookupTerm(term []byte) int {
	n := l.offsets.Len()
	i := sort.Search(n, func(ord int) bool {
		return bytes.Compare(l.terms.Entry(l.offsets.Get(ord)), term) >= 0
	})
	if i < n && bytes.Equal(l.terms.Entry(l.offsets.Get(i)), term) {
		return i
	}
	return -i - 1
}

func (l *sortedLeaf) Term(doc int) []byte {
	ord := l.OrdVal(doc)
	if ord < 0 {
		return nil
	}
	return l.LookupOrd(ord)
}

func (l *sortedLeaf) free() {
	l.docToOrd.Free()
	l.offsets.Free()
	l.terms.Free()
}

func outOfRange(ord, n int) string {
	return fmt.Sprintf("leaf: ordinal %d out of range [0,%d)", ord, n)
}

type sortedVisitor struct {
	alloc  *mem.Allocator
	maxDoc int

	arena    *arena.Paged
	offsets  []int64
	docToOrd packed.Array
	ord      int64
}

func (v *sortedVisitor) Term(ord int, term []byte) error {
	if ord == 0 {
		// Scratch width; narrowed once the ordinal count is known.
		arr, err := packed.New(v.alloc, v.maxDoc, 32)
		if err != nil {
			return err
		}
		v.docToOrd = arr
	}

	off, err := v.arena.Append(term)
	if err != nil {
		return fmt.Errorf("term %d: %w", ord, err)
	}
	v.offsets = append(v.offsets, off)
	v.ord = int64(ord) + 1
	return nil
}

func (v *sortedVisitor) Doc(doc int) {
	v.docToOrd.Set(doc, v.ord)
}

// narrowOrds repacks docToOrd to the narrowest width that holds every
// ordinal, including the missing slot 0.
func (v *sortedVisitor) narrowOrds() error {
	numOrds := int64(len(v.offsets))
	width, err := packed.Width(packed.BitsRequired(numOrds))
	if err != nil {
		return err
	}
	if width >= v.docToOrd.BitsPerValue() {
		return nil
	}

	narrow, err := packed.New(v.alloc, v.maxDoc, width)
	if err != nil {
		return fmt.Errorf("repack ordinals to %d bits: %w", width, err)
	}
	for doc := range v.maxDoc {
		narrow.Set(doc, v.docToOrd.Get(doc))
	}
	v.docToOrd.Free()
	v.docToOrd = narrow
	return nil
}

// buildSorted uninverts a string field into a sorted leaf.
func buildSorted(alloc *mem.Allocator, te index.TermsEnum, maxDoc, blockSize int) (_ Leaf, err error) {
	v := &sortedVisitor{
		alloc:  alloc,
		maxDoc: maxDoc,
		arena:  arena.NewPaged(alloc, blockSize),
	}
	defer v.arena.Close()

	var (
		terms   *arena.Flat
		offsets *packed.Monotonic
	)
	defer func() {
		if err == nil {
			return
		}
		if v.docToOrd != nil {
			v.docToOrd.Free()
		}
		if terms != nil {
			terms.Free()
		}
		if offsets != nil {
			offsets.Free()
		}
	}()

	scan, err := uninvert.Scan(te, maxDoc, index.TypeString, v)
	if err != nil {
		return nil, err
	}
	if scan.Stats.Empty() {
		return Empty(index.TypeString, maxDoc), nil
	}
	if err := v.narrowOrds(); err != nil {
		return nil, err
	}

	terms, err = v.arena.Flatten()
	if err != nil {
		return nil, fmt.Errorf("flatten terms: %w", err)
	}
	offsets, err = packed.NewMonotonic(alloc, v.offsets)
	if err != nil {
		return nil, fmt.Errorf("pack offsets: %w", err)
	}

	l := &sortedLeaf{
		base:     base{typ: index.TypeString, maxDoc: maxDoc, stats: scan.Stats},
		docToOrd: v.docToOrd,
		offsets:  offsets,
		terms:    terms,
	}
	l.Init(l.free)
	return l, nil
}
