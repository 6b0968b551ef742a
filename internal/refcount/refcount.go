// Package refcount provides the reference counter shared by cached values.
//
// A Count starts at one reference owned by its creator. Incrementing a count
// that already reached zero means a caller is reviving a released value; it
// panics rather than handing out freed memory. The release callback runs
// exactly once, on the 1→0 transition.
package refcount

import (
	"fmt"
	"sync/atomic"
)

// Count is an atomic reference counter with a release callback.
// The zero value is not usable; call Init or New.
type Count struct {
	refs    atomic.Int64
	release func()
}

// New returns a Count holding one reference.
func New(release func()) *Count {
	c := &Count{}
	c.Init(release)
	return c
}

// Init sets the count to one reference and installs the release callback.
func (c *Count) Init(release func()) {
	c.release = release
	c.refs.Store(1)
}

// IncRef adds a reference. It panics if the count is zero.
func (c *Count) IncRef() {
	for {
		refs := c.refs.Load()
		if refs <= 0 {
			panic(fmt.Sprintf("refcount: incref from %d", refs))
		}
		if c.refs.CompareAndSwap(refs, refs+1) {
			return
		}
	}
}

// TryIncRef attempts to increment the reference count.
// Returns false if the value was already released (refs == 0).
func (c *Count) TryIncRef() bool {
	for {
		refs := c.refs.Load()
		if refs <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// DecRef drops a reference and runs the release callback on the last one.
// It panics when called on a released count.
func (c *Count) DecRef() {
	refs := c.refs.Add(-1)
	switch {
	case refs == 0:
		if c.release != nil {
			c.release()
		}
	case refs < 0:
		panic(fmt.Sprintf("refcount: decref past zero (%d)", refs))
	}
}

// Refs returns the current number of references.
func (c *Count) Refs() int64 {
	return c.refs.Load()
}
