// Package slot implements a lazily built value with at-most-once construction.
//
// A Slot moves Absent → Building → Ready, or Building → Failed when the build
// returns an error. The owner guards the slot's fields with its own lock,
// which is held only for O(1) bookkeeping. The build itself runs under a
// per-slot placeholder mutex; concurrent callers wait on that mutex and never
// on the owner's lock.
package slot

import (
	"fmt"
	"sync"
)

// State is the construction state of a Slot.
type State uint8

const (
	Absent State = iota
	Building
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

type placeholder struct {
	mu sync.Mutex
}

// Slot holds one value of type V. The zero value is Absent.
type Slot[V any] struct {
	state State
	value V
	err   error
	ph    *placeholder
}

// Get returns the slot's value, running build if the slot is Absent.
// lock is the owner's lock guarding the slot. built reports whether this
// call ran build. A Failed slot returns its stored error on every call.
func (s *Slot[V]) Get(lock sync.Locker, build func() (V, error)) (v V, built bool, err error) {
	lock.Lock()
	for {
		switch s.state {
		case Ready:
			v = s.value
			lock.Unlock()
			return v, false, nil
		case Failed:
			err = s.err
			lock.Unlock()
			return v, false, err
		case Building:
			ph := s.ph
			lock.Unlock()
			ph.mu.Lock()
			//nolint:staticcheck // wait for the builder to publish
			ph.mu.Unlock()
			lock.Lock()
		default:
			ph := &placeholder{}
			ph.mu.Lock()
			defer ph.mu.Unlock()
			s.state = Building
			s.ph = ph
			lock.Unlock()

			v, err = s.run(lock, build)
			return v, true, err
		}
	}
}

func (s *Slot[V]) run(lock sync.Locker, build func() (V, error)) (v V, err error) {
	published := false
	defer func() {
		if published {
			return
		}
		r := recover()
		lock.Lock()
		s.state = Failed
		s.err = fmt.Errorf("slot: build panicked: %v", r)
		s.ph = nil
		lock.Unlock()
		if r != nil {
			panic(r)
		}
	}()

	v, err = build()

	lock.Lock()
	if err != nil {
		s.state = Failed
		s.err = err
	} else {
		s.state = Ready
		s.value = v
	}
	s.ph = nil
	published = true
	lock.Unlock()
	return v, err
}

// Set installs v into an Absent slot. It panics on any other state.
// The caller must hold the owner's lock.
func (s *Slot[V]) Set(v V) {
	if s.state != Absent {
		panic(fmt.Sprintf("slot: set on %s slot", s.state))
	}
	s.state = Ready
	s.value = v
}

// State returns the current state. The caller must hold the owner's lock.
func (s *Slot[V]) State() State {
	return s.state
}

// Value returns the value of a Ready slot. The caller must hold the owner's lock.
func (s *Slot[V]) Value() (V, bool) {
	if s.state != Ready {
		var zero V
		return zero, false
	}
	return s.value, true
}

// Err returns the error of a Failed slot. The caller must hold the owner's lock.
func (s *Slot[V]) Err() error {
	return s.err
}

// Reset returns a Ready or Failed slot to Absent and returns the previous
// value. It panics while Building. The caller must hold the owner's lock.
func (s *Slot[V]) Reset() (V, bool) {
	if s.state == Building {
		panic("slot: reset while building")
	}
	v, ok := s.Value()
	var zero V
	s.state = Absent
	s.value = zero
	s.err = nil
	return v, ok
}
