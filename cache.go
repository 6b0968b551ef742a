package fvcache

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/resource"
	"github.com/hupe1980/fvcache/internal/topvalues"
)

// FieldDescription is a snapshot of one cached field.
type FieldDescription = topvalues.Description

// LeafDescription is a snapshot of one built segment of a field.
type LeafDescription = topvalues.LeafDescription

// WarmStats summarizes a Reopen.
type WarmStats = topvalues.WarmStats

// Cache serves uninverted field values for the current generation of an index.
//
// Values are built per field and segment on first use and shared by all
// queries of the generation. Reopen moves the cache to a new generation,
// carrying over the values of segments that did not change.
//
// Cache is safe for concurrent use.
type Cache struct {
	opts   options
	rc     *resource.Controller
	alloc  *mem.Allocator
	logger *Logger

	reopenMu sync.Mutex // serializes Reopen

	mu     sync.RWMutex
	reg    *topvalues.Registry
	closed bool
}

// Open creates a cache over reader's generation. Nothing is built until a
// query asks for a field.
func Open(reader index.Reader, optFns ...Option) (*Cache, error) {
	if reader == nil {
		return nil, ErrNilReader
	}

	o := applyOptions(optFns)

	rc := o.rc
	if rc == nil {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes: o.memoryLimit,
			WarmWorkers:      o.warmConcurrency,
			WarmBuildsPerSec: o.warmRate,
			WarmBurst:        o.warmBurst,
		})
	}

	allocOpts := []mem.Option{mem.WithResourceController(rc)}
	if o.offHeapThreshold != nil {
		allocOpts = append(allocOpts, mem.WithOffHeapThreshold(*o.offHeapThreshold))
	}
	alloc := mem.NewAllocator(allocOpts...)

	c := &Cache{
		opts:   o,
		rc:     rc,
		alloc:  alloc,
		logger: o.logger,
	}
	c.reg = topvalues.New(reader,
		topvalues.WithAllocator(alloc),
		topvalues.WithResourceController(rc),
		topvalues.WithLogger(o.logger.Logger),
		topvalues.WithMetricsObserver(metricsObserver{mc: o.metricsCollector}),
		topvalues.WithLeafOptions(leaf.Options{ArenaBlockSize: o.arenaBlockSize}),
		topvalues.WithAutoWarm(o.autoWarm, o.warmConcurrency),
	)

	c.logger.LogOpen(context.Background(), reader.Generation(), len(reader.Segments()))
	return c, nil
}

// Reader returns the current generation.
func (c *Cache) Reader() index.Reader {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.Reader()
}

// NewQuery starts a request against the current generation. The query keeps
// reading that generation, even across Reopen, until it is closed.
func (c *Cache) NewQuery() (*Query, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, ErrClosed
	}
	q, err := c.reg.NewQuery()
	if err != nil {
		return nil, translateError(err)
	}
	reader := c.reg.Reader()
	return &Query{q: q, reader: reader, logger: c.logger.WithGeneration(reader.Generation())}, nil
}

// Reopen moves the cache to reader's generation. mapping[i] is the ordinal
// in reader of the current generation's segment i, or -1 when the segment is
// gone; a nil mapping matches segments by ID. Values of mapped segments are
// carried over instead of being rebuilt. With WithAutoWarm, every other
// value of the previously used fields is built before Reopen returns.
//
// Queries opened before Reopen keep the previous generation until closed.
// NewQuery keeps serving the previous generation while Reopen builds.
func (c *Cache) Reopen(ctx context.Context, reader index.Reader, mapping []int) (WarmStats, error) {
	if reader == nil {
		return WarmStats{}, ErrNilReader
	}

	c.reopenMu.Lock()
	defer c.reopenMu.Unlock()

	// Queries keep using the current registry while the next one warms.
	c.mu.RLock()
	cur := c.reg
	if c.closed || !cur.TryIncRef() {
		c.mu.RUnlock()
		return WarmStats{}, ErrClosed
	}
	c.mu.RUnlock()
	defer cur.DecRef()

	start := time.Now()
	from := cur.Reader().Generation()
	next, stats, err := cur.Warm(ctx, reader, mapping)
	if err != nil {
		err = translateError(err)
		c.logger.LogReopen(ctx, from, reader.Generation(), 0, time.Since(start), err)
		return stats, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		next.Close()
		return stats, ErrClosed
	}
	c.reg = next
	c.mu.Unlock()
	cur.Close()

	c.opts.metricsCollector.RecordWarm(stats.Fields, stats.Carried, stats.Built, stats.Duration)
	c.logger.LogReopen(ctx, from, reader.Generation(), stats.Carried, time.Since(start), nil)
	return stats, nil
}

// Stats is a snapshot of the cache's resource usage.
type Stats struct {
	Generation  uint64 `json:"generation"`
	Fields      int    `json:"fields"`
	Leaves      int    `json:"leaves"`
	Carried     int    `json:"carried"`
	Failed      int    `json:"failed"`
	SizeBytes   int64  `json:"size_bytes"`
	MemoryUsage int64  `json:"memory_usage"`
	PeakMemory  int64  `json:"peak_memory"`
	MemoryLimit int64  `json:"memory_limit"`
	OffHeap     int64  `json:"off_heap_bytes"`
	LiveBlocks  int64  `json:"live_blocks"`
}

// Stats returns a snapshot of the cache.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		MemoryUsage: c.rc.MemoryUsage(),
		PeakMemory:  c.rc.PeakMemoryUsage(),
		MemoryLimit: c.rc.MemoryLimit(),
	}
	as := c.alloc.Stats()
	s.OffHeap = as.OffHeapBytes
	s.LiveBlocks = as.LiveBlocks

	if c.closed {
		return s
	}
	s.Generation = c.reg.Reader().Generation()
	for _, d := range c.reg.Describe() {
		s.Fields++
		s.Leaves += d.Ready
		s.Carried += d.Carried
		s.Failed += d.Failed
		s.SizeBytes += d.SizeBytes
	}
	return s
}

// Describe returns a snapshot of every cached field of the current
// generation, ordered by field name and type.
func (c *Cache) Describe() []FieldDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil
	}
	return c.reg.Describe()
}

// Close releases the cache's values. Values borrowed by open queries are
// released when those queries close. Close is idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var bytes int64
	descs := c.reg.Describe()
	for _, d := range descs {
		bytes += d.SizeBytes
	}
	c.reg.Close()

	c.logger.LogClose(context.Background(), len(descs), bytes)
	return nil
}
