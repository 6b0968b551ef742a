package mmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon(t *testing.T) {
	size := 3*PageSize() + 1
	m, err := MapAnon(size)
	require.NoError(t, err)
	assert.Equal(t, size, m.Size())

	data := m.Bytes()
	require.Len(t, data, size)
	for i := range data {
		if data[i] != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}

	data[0] = 0xAB
	data[len(data)-1] = 0xCD
	assert.Equal(t, byte(0xAB), m.Bytes()[0])
	assert.Equal(t, byte(0xCD), m.Bytes()[size-1])

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.Zero(t, m.Size())
	assert.NoError(t, m.Close())
}

func TestMapAnonInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := MapAnon(size)
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}
