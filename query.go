package fvcache

import (
	"context"

	"github.com/hupe1980/fvcache/index"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/topvalues"
)

// NumericValues reads the numeric value of each document of one segment.
// Documents without a value read as 0 and report false from Exists.
type NumericValues = leaf.NumericValues

// SortedValues reads the term ordinal of each document of one segment.
// Documents without a value have ordinal -1.
type SortedValues = leaf.SortedValues

// Query is a request-scoped view of one generation. Values returned by a
// query stay valid until the query is closed. A Query is safe for
// concurrent use, but is meant to serve a single request.
type Query struct {
	q      *topvalues.Query
	reader index.Reader
	logger *Logger
}

// Reader returns the generation the query reads.
func (q *Query) Reader() index.Reader {
	return q.reader
}

func (q *Query) leaf(ctx context.Context, field string, typ index.ValueType, segment int) (leaf.Leaf, error) {
	l, err := q.q.Leaf(ctx, topvalues.FieldValues{Field: field, Type: typ}, segment)
	if err != nil {
		return nil, fieldError(field, segment, err)
	}
	return l, nil
}

// Numeric returns the values of a numeric field in segment, building them
// on first use.
func (q *Query) Numeric(ctx context.Context, field string, typ index.ValueType, segment int) (NumericValues, error) {
	l, err := q.leaf(ctx, field, typ, segment)
	if err != nil {
		return nil, err
	}
	nv, err := l.Numeric()
	if err != nil {
		return nil, fieldError(field, segment, err)
	}
	return nv, nil
}

// Sorted returns the ordinals of a string field in segment, building them
// on first use.
func (q *Query) Sorted(ctx context.Context, field string, segment int) (SortedValues, error) {
	l, err := q.leaf(ctx, field, index.TypeString, segment)
	if err != nil {
		return nil, err
	}
	sv, err := l.Sorted()
	if err != nil {
		return nil, fieldError(field, segment, err)
	}
	return sv, nil
}

// SizeInBytes returns the memory held by field's built values.
func (q *Query) SizeInBytes(field string, typ index.ValueType) (int64, error) {
	t, err := q.q.Values(topvalues.FieldValues{Field: field, Type: typ})
	if err != nil {
		return 0, translateError(err)
	}
	return t.SizeInBytes(), nil
}

// Close releases everything the query borrowed. It is idempotent.
func (q *Query) Close() {
	q.q.Close()
}
