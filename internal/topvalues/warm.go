package topvalues

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/leaf"
)

// ErrInvalidMapping is returned by Warm for a segment mapping that does not
// fit the two readers.
var ErrInvalidMapping = errors.New("topvalues: invalid segment mapping")

// WarmStats summarizes one generation change.
type WarmStats struct {
	Fields   int           // fields warmed
	Carried  int           // leaves reused from the previous generation
	Dropped  int           // leaves of segments that are gone
	Built    int           // leaves built eagerly
	Failed   int           // eager builds that failed
	Duration time.Duration // total warm time
}

// Warm creates the registry of next. Every field of r is recreated, and the
// leaves of segments that mapping proves unchanged are shared with the new
// generation instead of being rebuilt. mapping[i] is the ordinal in next of
// r's segment i, or -1 when the segment is gone; a nil mapping matches
// segments by ID.
//
// r stays usable; the caller closes it once the new registry is published.
func (r *Registry) Warm(ctx context.Context, next index.Reader, mapping []int) (*Registry, WarmStats, error) {
	start := time.Now()
	if r.released.Load() {
		return nil, WarmStats{}, ErrClosed
	}

	nr := newRegistry(next, r.cfg)

	if mapping == nil {
		mapping = index.MapSegments(r.reader, next)
	}
	if err := checkMapping(mapping, len(r.segments), len(nr.segments)); err != nil {
		nr.Close()
		return nil, WarmStats{}, err
	}

	var stats WarmStats
	for _, old := range r.Fields() {
		carried := 0
		nt := newTopValues(old.fv, nr.segments, nr.cfg)
		for ord, l := range old.readyLeaves() {
			dst := mapping[ord]
			if dst < 0 {
				stats.Dropped++
				continue
			}
			nt.carry(dst, l)
			carried++
		}
		nr.publish(nt)
		old.DecRef()

		stats.Fields++
		stats.Carried += carried
	}

	if r.cfg.autoWarm {
		built, failed, err := nr.autoWarm(ctx)
		stats.Built, stats.Failed = built, failed
		if err != nil {
			nr.Close()
			return nil, stats, fmt.Errorf("topvalues: warm: %w", err)
		}
	}

	for _, nt := range nr.Fields() {
		r.cfg.metrics.OnWarm(nt.fv, nt.carriedCount(), int(nt.Builds()))
		nt.DecRef()
	}

	stats.Duration = time.Since(start)
	r.cfg.logger.InfoContext(ctx, "warm completed",
		"generation", next.Generation(),
		"fields", stats.Fields,
		"carried", stats.Carried,
		"dropped", stats.Dropped,
		"built", stats.Built,
		"failed", stats.Failed,
		"duration", stats.Duration,
	)
	return nr, stats, nil
}

func checkMapping(mapping []int, oldLen, newLen int) error {
	if len(mapping) != oldLen {
		return fmt.Errorf("%w: %d entries for %d segments", ErrInvalidMapping, len(mapping), oldLen)
	}
	seen := make(map[int]bool, len(mapping))
	for i, dst := range mapping {
		if dst < 0 {
			continue
		}
		if dst >= newLen {
			return fmt.Errorf("%w: segment %d maps to %d of %d", ErrInvalidMapping, i, dst, newLen)
		}
		if seen[dst] {
			return fmt.Errorf("%w: segment %d mapped twice", ErrInvalidMapping, dst)
		}
		seen[dst] = true
	}
	return nil
}

func (t *TopValues) carriedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.carried
}

// autoWarm builds every absent leaf of every field, bounded by the
// configured concurrency and the resource controller. Construction faults
// are counted; only context errors abort.
func (r *Registry) autoWarm(ctx context.Context) (built, failed int, err error) {
	rc := r.cfg.rc
	limit := r.cfg.concurrency
	if limit < 1 {
		limit = rc.WarmWorkers()
	}

	var nBuilt, nFailed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	fields := r.Fields()
	defer func() {
		for _, t := range fields {
			t.DecRef()
		}
	}()

	for _, t := range fields {
		ready := t.readyLeaves()
		for ord := range t.NumSegments() {
			if _, ok := ready[ord]; ok {
				continue
			}
			g.Go(func() error {
				done, err := rc.StartWarm(gctx)
				if err != nil {
					return err
				}
				defer done()

				if _, err := t.Leaf(gctx, ord); err != nil {
					if errors.Is(err, leaf.ErrConstruction) {
						nFailed.Add(1)
						return nil
					}
					return err
				}
				nBuilt.Add(1)
				return nil
			})
		}
	}

	err = g.Wait()
	return int(nBuilt.Load()), int(nFailed.Load()), err
}
