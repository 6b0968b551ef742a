package topvalues

import (
	"context"
	"sync"

	"github.com/hupe1980/fvcache/internal/leaf"
)

// Query memoizes field lookups for one request. Every TopValues it returns
// stays referenced until Close, so leaves obtained through it remain valid
// for the whole request.
type Query struct {
	reg *Registry

	mu     sync.Mutex
	memo   map[string]*TopValues
	closed bool
}

// NewQuery starts a request against r. The query holds a reference to r
// until it is closed.
func (r *Registry) NewQuery() (*Query, error) {
	if r.ownerClosed.Load() || !r.TryIncRef() {
		return nil, ErrClosed
	}
	return &Query{reg: r, memo: make(map[string]*TopValues)}, nil
}

// Values returns the TopValues of fv, borrowed for the lifetime of q.
func (q *Query) Values(fv FieldValues) (*TopValues, error) {
	key := fv.Key()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}
	if t, ok := q.memo[key]; ok {
		q.reg.cfg.metrics.OnLookup(fv, true)
		return t, nil
	}

	t, err := q.reg.Get(fv)
	if err != nil {
		return nil, err
	}
	q.memo[key] = t
	q.reg.cfg.metrics.OnLookup(fv, false)
	return t, nil
}

// Leaf returns the leaf of fv in segment ord.
func (q *Query) Leaf(ctx context.Context, fv FieldValues, ord int) (leaf.Leaf, error) {
	t, err := q.Values(fv)
	if err != nil {
		return nil, err
	}
	return t.Leaf(ctx, ord)
}

// Registry returns the registry q reads from.
func (q *Query) Registry() *Registry {
	return q.reg
}

// Close releases every borrowed TopValues and the registry. It is idempotent.
func (q *Query) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	for _, t := range q.memo {
		t.DecRef()
	}
	q.memo = nil
	q.reg.DecRef()
}
