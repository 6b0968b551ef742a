package uninvert

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
	"github.com/hupe1980/fvcache/internal/mem"
)

func terms(t *testing.T, seg *memindex.Segment, field string) index.TermsEnum {
	t.Helper()
	te, err := seg.Terms(field)
	require.NoError(t, err)
	return te
}

func TestNumeric_Long(t *testing.T) {
	alloc := mem.NewAllocator()
	seg := memindex.NewSegment(1, 6)
	seg.AddLong("price", 0, 500)
	seg.AddLong("price", 1, -50)
	seg.AddLong("price", 2, 500)
	seg.AddLong("price", 4, 7)

	res, err := Numeric(alloc, terms(t, seg, "price"), seg.MaxDoc(), index.TypeLong)
	require.NoError(t, err)
	defer res.Values.Free()

	assert.Equal(t, 64, res.Values.BitsPerValue())
	assert.Equal(t, []int64{500, -50, 500, 0, 7, 0}, values(res))

	assert.Equal(t, int64(-50), res.Stats.MinLong())
	assert.Equal(t, int64(500), res.Stats.MaxLong())
	assert.Equal(t, 4, res.Stats.DocsWithField)
	assert.Equal(t, 3, res.Stats.UniqueValues)

	require.NotNil(t, res.DocsWithField)
	assert.True(t, res.DocsWithField.Contains(4))
	assert.False(t, res.DocsWithField.Contains(3))
}

func TestNumeric_IntUsesNarrowScratch(t *testing.T) {
	alloc := mem.NewAllocator()
	seg := memindex.NewSegment(1, 3)
	seg.AddInt("n", 0, math.MinInt32)
	seg.AddInt("n", 1, 0)
	seg.AddInt("n", 2, math.MaxInt32)

	res, err := Numeric(alloc, terms(t, seg, "n"), seg.MaxDoc(), index.TypeInt)
	require.NoError(t, err)
	defer res.Values.Free()

	assert.Equal(t, 32, res.Values.BitsPerValue())
	assert.Equal(t, []int64{math.MinInt32, 0, math.MaxInt32}, values(res))
	assert.Nil(t, res.DocsWithField, "dense field drops the bitmap")
	assert.Equal(t, 3, res.Stats.DocsWithField)
}

func TestNumeric_Double(t *testing.T) {
	alloc := mem.NewAllocator()
	seg := memindex.NewSegment(1, 3)
	seg.AddDouble("d", 0, 2.5)
	seg.AddDouble("d", 2, -1.25)

	res, err := Numeric(alloc, terms(t, seg, "d"), seg.MaxDoc(), index.TypeDouble)
	require.NoError(t, err)
	defer res.Values.Free()

	assert.Equal(t, 2.5, math.Float64frombits(uint64(res.Values.Get(0))))
	assert.Equal(t, int64(0), res.Values.Get(1))
	assert.Equal(t, -1.25, math.Float64frombits(uint64(res.Values.Get(2))))
	assert.Equal(t, -1.25, res.Stats.MinDouble())
	assert.Equal(t, 2.5, res.Stats.MaxDouble())
}

func TestNumeric_Float(t *testing.T) {
	alloc := mem.NewAllocator()
	seg := memindex.NewSegment(1, 2)
	seg.AddFloat("f", 0, -3.5)
	seg.AddFloat("f", 1, 0.5)

	res, err := Numeric(alloc, terms(t, seg, "f"), seg.MaxDoc(), index.TypeFloat)
	require.NoError(t, err)
	defer res.Values.Free()

	assert.Equal(t, float32(-3.5), math.Float32frombits(uint32(res.Values.Get(0))))
	assert.Equal(t, float32(0.5), math.Float32frombits(uint32(res.Values.Get(1))))
	assert.Equal(t, -3.5, res.Stats.MinDouble())
	assert.Equal(t, 0.5, res.Stats.MaxDouble())
}

func TestNumeric_NoTerms(t *testing.T) {
	alloc := mem.NewAllocator()

	res, err := Numeric(alloc, nil, 10, index.TypeLong)
	require.NoError(t, err)
	assert.Nil(t, res.Values)
	assert.Nil(t, res.DocsWithField)
	assert.True(t, res.Stats.Empty())
	assert.Equal(t, int64(0), alloc.Stats().LiveBlocks)
}

func TestNumeric_InvalidTermFreesScratch(t *testing.T) {
	alloc := mem.NewAllocator()
	seg := memindex.NewSegment(1, 3)
	seg.AddTerm("bad", index.TypeLong, index.EncodeLong(1), 0)
	seg.AddTerm("bad", index.TypeLong, []byte{0xff}, 1)

	_, err := Numeric(alloc, terms(t, seg, "bad"), seg.MaxDoc(), index.TypeLong)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTerm))
	assert.Equal(t, int64(0), alloc.Stats().LiveBlocks)
}

func TestNumeric_RejectsString(t *testing.T) {
	_, err := Numeric(mem.NewAllocator(), nil, 1, index.TypeString)
	assert.Error(t, err)
}

type recorder struct {
	terms []string
	docs  map[int]int
	ord   int
}

func (r *recorder) Term(ord int, term []byte) error {
	r.terms = append(r.terms, string(term))
	r.ord = ord
	return nil
}

func (r *recorder) Doc(doc int) {
	r.docs[doc] = r.ord
}

func TestScan_Strings(t *testing.T) {
	seg := memindex.NewSegment(1, 4)
	seg.AddString("fruit", 0, "cherry")
	seg.AddString("fruit", 1, "apple")
	seg.AddString("fruit", 3, "banana")

	r := &recorder{docs: map[int]int{}}
	res, err := Scan(terms(t, seg, "fruit"), seg.MaxDoc(), index.TypeString, r)
	require.NoError(t, err)

	assert.Equal(t, []string{"apple", "banana", "cherry"}, r.terms)
	assert.Equal(t, map[int]int{0: 2, 1: 0, 3: 1}, r.docs)
	assert.Equal(t, "apple", string(res.Stats.FirstTerm))
	assert.Equal(t, "cherry", string(res.Stats.LastTerm))
	assert.Equal(t, 3, res.Stats.DocsWithField)
	assert.Equal(t, 3, res.Stats.UniqueValues)
	assert.False(t, res.DocsWithField.Contains(2))
}

func TestParse(t *testing.T) {
	v, err := Parse(index.TypeInt, index.EncodeInt(-7))
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)

	_, err = Parse(index.TypeLong, []byte{1, 2})
	assert.Error(t, err)

	_, err = Parse(index.TypeString, []byte("x"))
	assert.Error(t, err)
}

func values(res *Result) []int64 {
	out := make([]int64, res.Values.Len())
	for i := range out {
		out[i] = res.Values.Get(i)
	}
	return out
}
