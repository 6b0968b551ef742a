package topvalues

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/resource"
)

func TestTopValues_SingleConstruction(t *testing.T) {
	seg := newSegment(1, 500)
	reg := New(memindex.NewReader(1, seg))
	defer reg.Close()

	const callers = 32
	leaves := make([]leaf.Leaf, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := reg.NewQuery()
			if !assert.NoError(t, err) {
				return
			}
			defer q.Close()

			l, err := q.Leaf(t.Context(), price, 0)
			assert.NoError(t, err)
			leaves[i] = l
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), seg.TermsRequests("price"))
	for i := range callers {
		assert.Same(t, leaves[0], leaves[i])
	}
	assert.Equal(t, 1, reg.Len())
}

func TestTopValues_WaitersBlockOnPlaceholderOnly(t *testing.T) {
	gated := newGatedSegment(newSegment(1, 10))
	other := newSegment(2, 10)
	reg := New(&reader{gen: 1, segs: []index.Segment{gated, other}})
	defer reg.Close()

	tv, err := reg.Get(price)
	require.NoError(t, err)
	defer tv.DecRef()

	done := make(chan leaf.Leaf)
	go func() {
		l, err := tv.Leaf(context.Background(), 0)
		assert.NoError(t, err)
		done <- l
	}()
	<-gated.entered

	// A different segment of the same field builds while segment 0 is busy.
	l, err := tv.Leaf(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, leaf.KindNumeric, l.Kind())

	close(gated.gate)
	first := <-done
	again, err := tv.Leaf(t.Context(), 0)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, int64(2), tv.Ready())
}

func TestTopValues_ReleaseWhileBuildingPanics(t *testing.T) {
	gated := newGatedSegment(newSegment(1, 10))
	cfg := defaultConfig()
	cfg.alloc = mem.NewAllocator()
	tv := newTopValues(price, []index.Segment{gated}, &cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = tv.Leaf(context.Background(), 0)
	}()
	<-gated.entered

	assert.Panics(t, func() { tv.DecRef() })
	close(gated.gate)
	<-done
}

func TestTopValues_ReleaseFreesLeaves(t *testing.T) {
	alloc := mem.NewAllocator()
	obs := &countingObserver{}
	reg := New(memindex.NewReader(1, newSegment(1, 300), newSegment(2, 300)),
		WithAllocator(alloc), WithMetricsObserver(obs))

	q := mustQuery(t, reg)
	for ord := range 2 {
		_, err := q.Leaf(t.Context(), price, ord)
		require.NoError(t, err)
		_, err = q.Leaf(t.Context(), fruit, ord)
		require.NoError(t, err)
	}
	assert.Positive(t, alloc.Stats().LiveBlocks)
	assert.Equal(t, int64(4), obs.builds.Load())

	reg.Close()
	assert.Positive(t, alloc.Stats().LiveBlocks, "open query still borrows the fields")

	q.Close()
	assert.Equal(t, int64(0), alloc.Stats().LiveBlocks)
	assert.Equal(t, int64(2), obs.released.Load())

	_, err := reg.Get(price)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTopValues_ConstructionFaultIsSticky(t *testing.T) {
	seg := memindex.NewSegment(1, 4)
	seg.AddTerm("price", index.TypeLong, []byte{1, 2, 3}, 0)
	obs := &countingObserver{}
	reg := New(memindex.NewReader(1, seg), WithMetricsObserver(obs))
	defer reg.Close()

	q := mustQuery(t, reg)
	defer q.Close()

	_, err := q.Leaf(t.Context(), price, 0)
	require.ErrorIs(t, err, leaf.ErrConstruction)
	_, err = q.Leaf(t.Context(), price, 0)
	require.ErrorIs(t, err, leaf.ErrConstruction)

	assert.Equal(t, int64(1), seg.TermsRequests("price"))
	assert.Equal(t, int64(1), obs.failures.Load())

	d := reg.Describe()
	require.Len(t, d, 1)
	assert.Equal(t, 1, d[0].Failed)
	assert.Equal(t, 0, d[0].Ready)
}

func TestTopValues_MemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
	reg := New(memindex.NewReader(1, newSegment(1, 10_000)), WithResourceController(rc))
	defer reg.Close()

	q := mustQuery(t, reg)
	defer q.Close()

	_, err := q.Leaf(t.Context(), price, 0)
	assert.ErrorIs(t, err, leaf.ErrConstruction)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestTopValues_NoSegmentAndCanceledContext(t *testing.T) {
	reg := New(memindex.NewReader(1, newSegment(1, 5)))
	defer reg.Close()
	q := mustQuery(t, reg)
	defer q.Close()

	_, err := q.Leaf(t.Context(), price, 3)
	assert.ErrorIs(t, err, ErrNoSegment)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = q.Leaf(ctx, price, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopValues_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := New(memindex.NewReader(1, newSegment(1, 5)), WithLogger(logger))
	q := mustQuery(t, reg)
	_, err := q.Leaf(t.Context(), fruit, 0)
	require.NoError(t, err)
	q.Close()
	reg.Close()

	out := buf.String()
	assert.Contains(t, out, "leaf built")
	assert.Contains(t, out, `"kind":"sorted"`)
	assert.Contains(t, out, "field values released")
}

func TestTopValues_SizeAndDescribe(t *testing.T) {
	seg := newSegment(7, 100)
	reg := New(memindex.NewReader(1, seg))
	defer reg.Close()

	tv, err := reg.Get(price)
	require.NoError(t, err)
	defer tv.DecRef()

	assert.Equal(t, int64(0), tv.SizeInBytes())
	l, err := tv.Leaf(t.Context(), 0)
	require.NoError(t, err)

	d := tv.Describe()
	assert.Equal(t, "price", d.Field)
	assert.Equal(t, "long", d.Type)
	assert.Equal(t, 1, d.Segments)
	assert.Equal(t, 1, d.Ready)
	require.Len(t, d.Leaves, 1)
	assert.Equal(t, index.SegmentID(7), d.Leaves[0].Segment)
	assert.Equal(t, l.BitsPerValue(), d.Leaves[0].Bits)
	assert.Equal(t, tv.SizeInBytes(), d.SizeBytes)
	assert.Contains(t, d.String(), "price:long")
}
