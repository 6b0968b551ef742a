package fvcache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/fvcache/internal/arena"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/resource"
	"github.com/hupe1980/fvcache/internal/topvalues"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

func TestTranslateError(t *testing.T) {
	construction := func(cause error) error {
		return fmt.Errorf("%w: field %q segment %d: %w", leaf.ErrConstruction, "f", 1, cause)
	}

	tests := []struct {
		name string
		err  error
		want []error
	}{
		{"Closed", topvalues.ErrClosed, []error{ErrClosed, topvalues.ErrClosed}},
		{"NoSegment", fmt.Errorf("ord 4: %w", topvalues.ErrNoSegment), []error{ErrNoSegment}},
		{"InvalidMapping", topvalues.ErrInvalidMapping, []error{ErrInvalidMapping}},
		{"Mismatch", fmt.Errorf("%w: sorted access", leaf.ErrTypeMismatch), []error{ErrTypeMismatch}},
		{"ConstructionMismatch", construction(leaf.ErrTypeMismatch), []error{ErrConstruction, ErrTypeMismatch, leaf.ErrConstruction}},
		{"ConstructionMemory", construction(resource.ErrMemoryLimitExceeded), []error{ErrConstruction, ErrMemoryLimitExceeded}},
		{"ConstructionTerm", construction(uninvert.ErrInvalidTerm), []error{ErrConstruction, ErrInvalidTerm}},
		{"ConstructionEntry", construction(arena.ErrEntryTooLarge), []error{ErrConstruction, ErrEntryTooLarge}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			for _, want := range tt.want {
				assert.ErrorIs(t, got, want)
			}
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, translateError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, translateError(plain))
}

func TestFieldError(t *testing.T) {
	err := fieldError("price", 2, fmt.Errorf("%w: sorted access on long field", leaf.ErrTypeMismatch))

	var fe *FieldError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, "price", fe.Field)
	assert.Equal(t, 2, fe.Segment)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), `field "price" segment 2`)

	assert.NoError(t, fieldError("price", 0, nil))
}
