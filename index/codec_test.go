package index

import (
	"bytes"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntTerms_SortOrder(t *testing.T) {
	values := []int32{math.MinInt32, -500, -1, 0, 1, 127, 128, 500000, math.MaxInt32}

	var prev []byte
	for _, v := range values {
		term := EncodeInt(v)
		if prev != nil {
			assert.Negative(t, bytes.Compare(prev, term), "order broken at %d", v)
		}
		got, err := DecodeInt(term)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		prev = term
	}
}

func TestLongTerms_SortOrder(t *testing.T) {
	values := []int64{math.MinInt64, -1 << 40, -1, 0, 1, 1 << 33, math.MaxInt64}

	var prev []byte
	for _, v := range values {
		term := EncodeLong(v)
		if prev != nil {
			assert.Negative(t, bytes.Compare(prev, term))
		}
		got, err := DecodeLong(term)
		require.NoError(t, err)
		assert.Equal(t, v, got)
		prev = term
	}
}

func TestFloatTerms_SortOrder(t *testing.T) {
	values := []float64{math.Inf(-1), -1e300, -2.5, -0.0001, 0, 0.0001, 3.25, 1e300, math.Inf(1)}

	terms := make([][]byte, len(values))
	for i, v := range values {
		terms[i] = EncodeDouble(v)
		got, err := DecodeDouble(terms[i])
		require.NoError(t, err)
		assert.Equal(t, v, got)

		f := float32(v)
		gotF, err := DecodeFloat(EncodeFloat(f))
		require.NoError(t, err)
		assert.Equal(t, f, gotF)
	}
	assert.True(t, slices.IsSortedFunc(terms, bytes.Compare))
}

func TestDecode_WrongLength(t *testing.T) {
	_, err := DecodeInt([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = DecodeLong(EncodeInt(5))
	assert.Error(t, err)
	_, err = DecodeFloat(nil)
	assert.Error(t, err)
	_, err = DecodeDouble([]byte("abc"))
	assert.Error(t, err)
}

func TestValueType(t *testing.T) {
	assert.Equal(t, "long", TypeLong.String())
	assert.True(t, TypeDouble.Numeric())
	assert.False(t, TypeString.Numeric())
	assert.False(t, TypeUnknown.Numeric())
	assert.Equal(t, "ValueType(42)", ValueType(42).String())
}
