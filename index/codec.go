package index

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	intTermSize  = 4
	longTermSize = 8
)

// EncodeInt returns the sortable term bytes of v.
func EncodeInt(v int32) []byte {
	b := make([]byte, intTermSize)
	binary.BigEndian.PutUint32(b, uint32(v)^(1<<31))
	return b
}

// DecodeInt parses a term written by EncodeInt.
func DecodeInt(b []byte) (int32, error) {
	if len(b) != intTermSize {
		return 0, fmt.Errorf("int term: want %d bytes, got %d", intTermSize, len(b))
	}
	return int32(binary.BigEndian.Uint32(b) ^ (1 << 31)), nil
}

// EncodeLong returns the sortable term bytes of v.
func EncodeLong(v int64) []byte {
	b := make([]byte, longTermSize)
	binary.BigEndian.PutUint64(b, uint64(v)^(1<<63))
	return b
}

// DecodeLong parses a term written by EncodeLong.
func DecodeLong(b []byte) (int64, error) {
	if len(b) != longTermSize {
		return 0, fmt.Errorf("long term: want %d bytes, got %d", longTermSize, len(b))
	}
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63)), nil
}

// SortableFloatBits maps float bits to an int32 that orders like the float.
// The mapping is its own inverse.
func SortableFloatBits(bits int32) int32 {
	return bits ^ (bits>>31)&0x7fffffff
}

// SortableDoubleBits maps double bits to an int64 that orders like the double.
// The mapping is its own inverse.
func SortableDoubleBits(bits int64) int64 {
	return bits ^ (bits>>63)&0x7fffffffffffffff
}

// EncodeFloat returns the sortable term bytes of v.
func EncodeFloat(v float32) []byte {
	return EncodeInt(SortableFloatBits(int32(math.Float32bits(v))))
}

// DecodeFloat parses a term written by EncodeFloat.
func DecodeFloat(b []byte) (float32, error) {
	s, err := DecodeInt(b)
	if err != nil {
		return 0, fmt.Errorf("float term: %w", err)
	}
	return math.Float32frombits(uint32(SortableFloatBits(s))), nil
}

// EncodeDouble returns the sortable term bytes of v.
func EncodeDouble(v float64) []byte {
	return EncodeLong(SortableDoubleBits(int64(math.Float64bits(v))))
}

// DecodeDouble parses a term written by EncodeDouble.
func DecodeDouble(b []byte) (float64, error) {
	s, err := DecodeLong(b)
	if err != nil {
		return 0, fmt.Errorf("double term: %w", err)
	}
	return math.Float64frombits(uint64(SortableDoubleBits(s))), nil
}
