package topvalues

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
	"github.com/hupe1980/fvcache/internal/leaf"
)

var (
	price = FieldValues{Field: "price", Type: index.TypeLong}
	fruit = FieldValues{Field: "fruit", Type: index.TypeString}
)

// newSegment returns a segment with a long "price" field (doc*10+id) and a
// string "fruit" field.
func newSegment(id index.SegmentID, maxDoc int) *memindex.Segment {
	fruits := []string{"apple", "banana", "cherry"}
	seg := memindex.NewSegment(id, maxDoc)
	for doc := range maxDoc {
		seg.AddLong("price", doc, int64(doc*10)+int64(id))
		seg.AddString("fruit", doc, fruits[doc%len(fruits)])
	}
	return seg
}

// gatedSegment blocks Terms until the gate is opened.
type gatedSegment struct {
	*memindex.Segment
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func newGatedSegment(seg *memindex.Segment) *gatedSegment {
	return &gatedSegment{Segment: seg, entered: make(chan struct{}), gate: make(chan struct{})}
}

func (g *gatedSegment) Terms(field string) (index.TermsEnum, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.gate
	return g.Segment.Terms(field)
}

type reader struct {
	gen  uint64
	segs []index.Segment
}

func (r *reader) Generation() uint64        { return r.gen }
func (r *reader) Segments() []index.Segment { return r.segs }

type countingObserver struct {
	builds   atomic.Int64
	failures atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
	warms    atomic.Int64
	released atomic.Int64
}

func (o *countingObserver) OnBuild(_ FieldValues, _ time.Duration, _ leaf.Kind, _ int64, err error) {
	o.builds.Add(1)
	if err != nil {
		o.failures.Add(1)
	}
}

func (o *countingObserver) OnLookup(_ FieldValues, hit bool) {
	if hit {
		o.hits.Add(1)
	} else {
		o.misses.Add(1)
	}
}

func (o *countingObserver) OnWarm(FieldValues, int, int) { o.warms.Add(1) }

func (o *countingObserver) OnRelease(FieldValues, int64) { o.released.Add(1) }

func mustQuery(t *testing.T, reg *Registry) *Query {
	t.Helper()
	q, err := reg.NewQuery()
	require.NoError(t, err)
	return q
}
