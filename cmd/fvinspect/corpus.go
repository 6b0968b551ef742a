package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/index/memindex"
)

// corpus generates segments from a Config. Segments are deterministic in
// the seed and their ID.
type corpus struct {
	cfg   Config
	types map[string]index.ValueType
	segs  map[index.SegmentID]*memindex.Segment
}

func newCorpus(cfg Config) (*corpus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	types := make(map[string]index.ValueType, len(cfg.Fields))
	for _, f := range cfg.Fields {
		typ, _ := parseType(f.Type)
		types[f.Name] = typ
	}
	return &corpus{cfg: cfg, types: types, segs: make(map[index.SegmentID]*memindex.Segment)}, nil
}

// segment returns the segment with the given ID, generating it on first use.
func (c *corpus) segment(id index.SegmentID) *memindex.Segment {
	if seg, ok := c.segs[id]; ok {
		return seg
	}

	rng := rand.New(rand.NewPCG(c.cfg.Seed, uint64(id)))
	seg := memindex.NewSegment(id, c.cfg.Docs)

	for _, f := range c.cfg.Fields {
		typ := c.types[f.Name]
		for doc := range c.cfg.Docs {
			if rng.Float64() >= f.Density {
				continue
			}
			switch typ {
			case index.TypeInt:
				seg.AddInt(f.Name, doc, int32(f.Min+rng.Int64N(f.Max-f.Min+1)))
			case index.TypeLong:
				seg.AddLong(f.Name, doc, f.Min+rng.Int64N(f.Max-f.Min+1))
			case index.TypeFloat:
				seg.AddFloat(f.Name, doc, float32(f.Min)+rng.Float32()*float32(f.Max-f.Min))
			case index.TypeDouble:
				seg.AddDouble(f.Name, doc, float64(f.Min)+rng.Float64()*float64(f.Max-f.Min))
			case index.TypeString:
				seg.AddString(f.Name, doc, term(rng.IntN(f.Cardinality)))
			}
		}
		if f.DocValues {
			seg.EnableDocValues(f.Name, typ)
		}
	}
	c.segs[id] = seg
	return seg
}

// reader returns a generation made of the segments with the given IDs.
func (c *corpus) reader(generation uint64, ids ...index.SegmentID) *memindex.Reader {
	segs := make([]*memindex.Segment, len(ids))
	for i, id := range ids {
		segs[i] = c.segment(id)
	}
	return memindex.NewReader(generation, segs...)
}

func term(n int) string {
	return fmt.Sprintf("term-%05d", n)
}
