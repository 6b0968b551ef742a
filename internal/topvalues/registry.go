package topvalues

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/refcount"
)

// ErrClosed is returned by a Registry that was closed.
var ErrClosed = errors.New("topvalues: registry closed")

const numShards = 64

type shard struct {
	mu     sync.RWMutex
	fields map[string]*TopValues
}

// Registry maps field keys to the TopValues of one index generation.
// It holds one reference to every TopValues it publishes and drops them
// when released.
//
// The Registry is itself reference counted: its owner holds the initial
// reference and every open Query holds one more, so a generation stays
// readable until the last query on it is closed.
type Registry struct {
	refcount.Count

	reader   index.Reader
	segments []index.Segment
	cfg      *config
	shards   [numShards]*shard

	ownerClosed atomic.Bool
	released    atomic.Bool
}

// New creates the registry of reader's generation.
func New(reader index.Reader, opts ...Option) *Registry {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.alloc == nil {
		cfg.alloc = mem.NewAllocator(mem.WithResourceController(cfg.rc))
	}
	return newRegistry(reader, &cfg)
}

func newRegistry(reader index.Reader, cfg *config) *Registry {
	r := &Registry{
		reader:   reader,
		segments: slices.Clone(reader.Segments()),
		cfg:      cfg,
	}
	for i := range numShards {
		r.shards[i] = &shard{fields: make(map[string]*TopValues)}
	}
	r.Init(r.release)
	return r
}

// Reader returns the generation this registry serves.
func (r *Registry) Reader() index.Reader {
	return r.reader
}

// Allocator returns the allocator leaves are built from.
func (r *Registry) Allocator() *mem.Allocator {
	return r.cfg.alloc
}

func (r *Registry) shard(key string) *shard {
	return r.shards[xxhash.Sum64String(key)%numShards]
}

// Get returns the TopValues of fv with one reference added for the caller,
// creating it on first use. The caller must DecRef it when done.
func (r *Registry) Get(fv FieldValues) (*TopValues, error) {
	if r.released.Load() {
		return nil, ErrClosed
	}

	key := fv.Key()
	sh := r.shard(key)

	sh.mu.RLock()
	t, ok := sh.fields[key]
	if ok && t.TryIncRef() {
		sh.mu.RUnlock()
		return t, nil
	}
	sh.mu.RUnlock()

	candidate := newTopValues(fv, r.segments, r.cfg)

	sh.mu.Lock()
	if r.released.Load() {
		sh.mu.Unlock()
		candidate.DecRef()
		return nil, ErrClosed
	}
	t, ok = sh.fields[key]
	if !ok {
		t = candidate
		sh.fields[key] = t
	}
	t.IncRef()
	sh.mu.Unlock()

	if t != candidate {
		candidate.DecRef()
	}
	return t, nil
}

// publish inserts t, which must hold the registry's reference, unless the
// key is taken. It reports whether t was inserted.
func (r *Registry) publish(t *TopValues) bool {
	key := t.fv.Key()
	sh := r.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.fields[key]; ok {
		return false
	}
	sh.fields[key] = t
	return true
}

// Fields returns the published TopValues ordered by key, each with a
// reference added for the caller.
func (r *Registry) Fields() []*TopValues {
	var out []*TopValues
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, t := range sh.fields {
			if t.TryIncRef() {
				out = append(out, t)
			}
		}
		sh.mu.RUnlock()
	}
	slices.SortFunc(out, func(a, b *TopValues) int {
		return compareKeys(a.fv, b.fv)
	})
	return out
}

func compareKeys(a, b FieldValues) int {
	return cmp.Or(strings.Compare(a.Field, b.Field), cmp.Compare(a.Type, b.Type))
}

// Len returns the number of published fields.
func (r *Registry) Len() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.fields)
		sh.mu.RUnlock()
	}
	return n
}

// Close drops the owner's reference. Once every query on the registry is
// closed, the registry drops its reference to each TopValues. Close is
// idempotent.
func (r *Registry) Close() {
	if r.ownerClosed.Swap(true) {
		return
	}
	r.DecRef()
}

func (r *Registry) release() {
	r.released.Store(true)

	for _, sh := range r.shards {
		sh.mu.Lock()
		fields := sh.fields
		sh.fields = make(map[string]*TopValues)
		sh.mu.Unlock()

		for _, t := range fields {
			t.DecRef()
		}
	}
}
