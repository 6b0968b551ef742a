package fvcache_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
)

func TestLongRange(t *testing.T) {
	ctx := context.Background()
	seg := sortSegment()
	c := openCache(t, memindex.NewReader(1, seg))
	q := newQuery(t, c)

	tests := []struct {
		name   string
		lo, hi int64
		want   []uint32
	}{
		{"All", math.MinInt64, math.MaxInt64, []uint32{0, 2, 3}},
		{"Closed", 10, 20, []uint32{2, 3}},
		{"Point", 30, 30, []uint32{0}},
		{"ZeroExcludesMissing", -5, 5, nil},
		{"OutsideStats", 31, 100, nil},
		{"Inverted", 20, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bm, err := q.LongRange(ctx, "price", index.TypeLong, 0, tt.lo, tt.hi)
			require.NoError(t, err)
			got := bm.ToArray()
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLongRangeDenseZero(t *testing.T) {
	ctx := context.Background()
	seg := memindex.NewSegment(1, 3)
	seg.AddLong("stock", 0, 0)
	seg.AddLong("stock", 1, 4)
	seg.AddLong("stock", 2, 0)

	c := openCache(t, memindex.NewReader(1, seg))
	q := newQuery(t, c)

	// Every document has a value, so no bitmap is kept and a stored zero
	// reads as missing.
	bm, err := q.LongRange(ctx, "stock", index.TypeLong, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, bm.ToArray())
}

func TestDoubleRange(t *testing.T) {
	ctx := context.Background()
	c := openCache(t, memindex.NewReader(1, sortSegment()))
	q := newQuery(t, c)

	bm, err := q.DoubleRange(ctx, "weight", index.TypeFloat, 0, -1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3}, bm.ToArray())

	bm, err = q.DoubleRange(ctx, "weight", index.TypeFloat, 0, math.NaN(), 1)
	require.NoError(t, err)
	assert.True(t, bm.IsEmpty())

	bm, err = q.DoubleRange(ctx, "price", index.TypeLong, 0, 9.5, 20.5)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, bm.ToArray())

	// Long bounds on a float field are compared as doubles.
	bm, err = q.LongRange(ctx, "weight", index.TypeFloat, 0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 3}, bm.ToArray())
}

func TestTermRange(t *testing.T) {
	ctx := context.Background()
	c := openCache(t, memindex.NewReader(1, sortSegment()))
	q := newQuery(t, c)

	tests := []struct {
		name                 string
		lo, hi               string
		includeLo, includeHi bool
		want                 []uint32
	}{
		{"Closed", "apple", "banana", true, true, []uint32{1, 3}},
		{"Open", "apple", "cherry", false, false, []uint32{3}},
		{"AbsentBounds", "apricot", "cranberry", false, false, []uint32{0, 3}},
		{"Unbounded", "", "", false, false, []uint32{0, 1, 3}},
		{"Empty", "d", "z", true, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lo, hi []byte
			if tt.lo != "" {
				lo = []byte(tt.lo)
			}
			if tt.hi != "" {
				hi = []byte(tt.hi)
			}
			bm, err := q.TermRange(ctx, "fruit", 0, lo, hi, tt.includeLo, tt.includeHi)
			require.NoError(t, err)
			got := bm.ToArray()
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
