package fvcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fvcache/internal/arena"
	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/resource"
	"github.com/hupe1980/fvcache/internal/topvalues"
	"github.com/hupe1980/fvcache/internal/uninvert"
)

var (
	// ErrClosed is returned after the cache or query was closed.
	ErrClosed = errors.New("fvcache: closed")

	// ErrNilReader is returned when Open or Reopen get a nil reader.
	ErrNilReader = errors.New("fvcache: nil index reader")

	// ErrTypeMismatch is returned when a field is read as the wrong kind,
	// e.g. ordinals of a numeric field.
	ErrTypeMismatch = errors.New("fvcache: type mismatch")

	// ErrConstruction is returned when a field's values could not be built.
	// The failure is remembered for the rest of the generation.
	ErrConstruction = errors.New("fvcache: construction failed")

	// ErrMemoryLimitExceeded is returned when building would exceed the memory limit.
	ErrMemoryLimitExceeded = errors.New("fvcache: memory limit exceeded")

	// ErrInvalidTerm is returned when an indexed term cannot be parsed as the field's type.
	ErrInvalidTerm = errors.New("fvcache: invalid term")

	// ErrEntryTooLarge is returned for a string term longer than the dictionary allows.
	ErrEntryTooLarge = errors.New("fvcache: term too large")

	// ErrNoSegment is returned for a segment ordinal outside the reader.
	ErrNoSegment = errors.New("fvcache: no such segment")

	// ErrInvalidMapping is returned by Reopen for a segment mapping that does
	// not fit the two readers.
	ErrInvalidMapping = errors.New("fvcache: invalid segment mapping")
)

// FieldError describes a failure to build or read one field of one segment.
//
// The original underlying error can be accessed via errors.Unwrap.
type FieldError struct {
	Field   string
	Segment int
	cause   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q segment %d: %v", e.Field, e.Segment, e.cause)
}

func (e *FieldError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, topvalues.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, topvalues.ErrNoSegment) {
		return fmt.Errorf("%w: %w", ErrNoSegment, err)
	}
	if errors.Is(err, topvalues.ErrInvalidMapping) {
		return fmt.Errorf("%w: %w", ErrInvalidMapping, err)
	}

	// Construction faults keep every cause that applies.
	if errors.Is(err, leaf.ErrConstruction) {
		causes := []error{ErrConstruction}
		if errors.Is(err, leaf.ErrTypeMismatch) {
			causes = append(causes, ErrTypeMismatch)
		}
		if errors.Is(err, resource.ErrMemoryLimitExceeded) {
			causes = append(causes, ErrMemoryLimitExceeded)
		}
		if errors.Is(err, uninvert.ErrInvalidTerm) {
			causes = append(causes, ErrInvalidTerm)
		}
		if errors.Is(err, arena.ErrEntryTooLarge) {
			causes = append(causes, ErrEntryTooLarge)
		}
		for i := len(causes) - 1; i >= 0; i-- {
			err = fmt.Errorf("%w: %w", causes[i], err)
		}
		return err
	}
	if errors.Is(err, leaf.ErrTypeMismatch) {
		return fmt.Errorf("%w: %w", ErrTypeMismatch, err)
	}

	return err
}

// fieldError translates err and attaches the field and segment.
func fieldError(field string, segment int, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: field, Segment: segment, cause: translateError(err)}
}
