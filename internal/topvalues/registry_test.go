package topvalues

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
)

func TestRegistry_OneTopValuesPerField(t *testing.T) {
	reg := New(memindex.NewReader(1, newSegment(1, 10)))
	defer reg.Close()

	const callers = 32
	got := make([]*TopValues, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tv, err := reg.Get(price)
			assert.NoError(t, err)
			got[i] = tv
		}()
	}
	wg.Wait()

	for i := range callers {
		assert.Same(t, got[0], got[i])
	}
	assert.Equal(t, int64(callers+1), got[0].Refs())
	assert.Equal(t, 1, reg.Len())

	for _, tv := range got {
		tv.DecRef()
	}
	assert.Equal(t, int64(1), got[0].Refs())
}

func TestRegistry_KeyIncludesType(t *testing.T) {
	reg := New(memindex.NewReader(1, newSegment(1, 10)))
	defer reg.Close()

	a, err := reg.Get(FieldValues{Field: "price", Type: index.TypeLong})
	require.NoError(t, err)
	defer a.DecRef()
	b, err := reg.Get(FieldValues{Field: "price", Type: index.TypeDouble})
	require.NoError(t, err)
	defer b.DecRef()

	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Len())

	fields := reg.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, index.TypeLong, fields[0].Field().Type)
	assert.Equal(t, index.TypeDouble, fields[1].Field().Type)
	for _, f := range fields {
		f.DecRef()
	}
}

func TestRegistry_CloseIsIdempotent(t *testing.T) {
	reg := New(memindex.NewReader(1, newSegment(1, 10)))
	tv, err := reg.Get(price)
	require.NoError(t, err)

	reg.Close()
	reg.Close()
	assert.Equal(t, int64(1), tv.Refs())
	assert.Equal(t, 0, reg.Len())
	tv.DecRef()
	assert.Equal(t, int64(0), tv.Refs())
}

func TestRegistry_QueryPinsGeneration(t *testing.T) {
	reg := New(memindex.NewReader(1, newSegment(1, 10)))
	q := mustQuery(t, reg)

	reg.Close()
	_, err := reg.NewQuery()
	assert.ErrorIs(t, err, ErrClosed)

	l, err := q.Leaf(t.Context(), price, 0)
	require.NoError(t, err, "open query still reads the closed generation")
	assert.Equal(t, int64(1), l.Refs())

	q.Close()
	_, err = reg.Get(price)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQuery_Memo(t *testing.T) {
	obs := &countingObserver{}
	reg := New(memindex.NewReader(1, newSegment(1, 10)), WithMetricsObserver(obs))
	defer reg.Close()

	q := mustQuery(t, reg)
	a, err := q.Values(price)
	require.NoError(t, err)
	b, err := q.Values(price)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, reg, q.Registry())
	assert.Equal(t, int64(1), obs.misses.Load())
	assert.Equal(t, int64(1), obs.hits.Load())
	assert.Equal(t, int64(2), a.Refs(), "registry plus one memo borrow")

	q.Close()
	q.Close()
	assert.Equal(t, int64(1), a.Refs())

	_, err = q.Values(price)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFieldValues_Key(t *testing.T) {
	assert.NotEqual(t, price.Key(), FieldValues{Field: "price", Type: index.TypeInt}.Key())
	assert.Equal(t, "price:long", price.String())
}
