package packed

import (
	"math"

	"github.com/hupe1980/fvcache/internal/mem"
)

// Monotonic stores a non-decreasing sequence as deviations from the line
// first + avg*i. Deviations are biased into the narrowest width whose
// signed range covers their spread.
type Monotonic struct {
	deviations Array
	first      int64
	avg        float64
	bias       int64
}

// NewMonotonic packs values. The slice is not retained.
func NewMonotonic(alloc *mem.Allocator, values []int64) (*Monotonic, error) {
	m := &Monotonic{}
	n := len(values)
	if n > 0 {
		m.first = values[0]
	}
	if n > 1 {
		m.avg = float64(values[n-1]-values[0]) / float64(n-1)
	}

	minDev, maxDev := int64(0), int64(0)
	for i, v := range values {
		dev := v - m.expected(i)
		if i == 0 || dev < minDev {
			minDev = dev
		}
		if i == 0 || dev > maxDev {
			maxDev = dev
		}
	}

	spread := uint64(maxDev) - uint64(minDev)
	width := 64
	switch {
	case spread < 1<<8:
		width, m.bias = 8, minDev+128
	case spread < 1<<16:
		width, m.bias = 16, minDev+32768
	case spread < 1<<32:
		width, m.bias = 32, minDev+(1<<31)
	}

	devs, err := New(alloc, n, width)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		devs.Set(i, v-m.expected(i)-m.bias)
	}
	m.deviations = devs
	return m, nil
}

func (m *Monotonic) expected(i int) int64 {
	return m.first + int64(math.Floor(m.avg*float64(i)))
}

// Get returns the value at index i.
func (m *Monotonic) Get(i int) int64 {
	return m.expected(i) + m.deviations.Get(i) + m.bias
}

// Len returns the number of values.
func (m *Monotonic) Len() int {
	return m.deviations.Len()
}

// BitsPerValue returns the width used for deviations.
func (m *Monotonic) BitsPerValue() int {
	return m.deviations.BitsPerValue()
}

// SizeInBytes returns the accounted size of the deviation block.
func (m *Monotonic) SizeInBytes() int64 {
	return m.deviations.SizeInBytes()
}

// Free releases the deviation block.
func (m *Monotonic) Free() {
	m.deviations.Free()
}
