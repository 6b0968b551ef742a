package mmap

import (
	"errors"
	"os"
	"sync/atomic"
)

// ErrInvalidSize is returned for a mapping size that is zero or negative.
var ErrInvalidSize = errors.New("mmap: invalid size")

// Mapping is a zeroed, read-write region of anonymous memory.
type Mapping struct {
	data     []byte
	released atomic.Bool
	release  func([]byte) error
}

// MapAnon maps size bytes of zeroed anonymous memory.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, release, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, release: release}, nil
}

// PageSize returns the operating system page size. Mappings are whole pages.
func PageSize() int {
	return os.Getpagesize()
}

// Bytes returns the mapped memory, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.released.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapped size in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}

// Close unmaps the memory. Only the first call has an effect.
func (m *Mapping) Close() error {
	if m.released.Swap(true) {
		return nil
	}
	data := m.data
	m.data = nil
	return m.release(data)
}
