package topvalues

import (
	"time"

	"github.com/hupe1980/fvcache/internal/leaf"
)

// MetricsObserver receives cache events. Implementations must be safe for
// concurrent use.
type MetricsObserver interface {
	// OnBuild is called when a leaf construction finishes.
	OnBuild(fv FieldValues, duration time.Duration, kind leaf.Kind, bytes int64, err error)

	// OnLookup is called for every Query lookup; hit is true when the
	// request memo already held the field.
	OnLookup(fv FieldValues, hit bool)

	// OnWarm is called once per warmed field.
	OnWarm(fv FieldValues, carried, built int)

	// OnRelease is called when a TopValues releases its leaves.
	OnRelease(fv FieldValues, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnBuild(FieldValues, time.Duration, leaf.Kind, int64, error) {}
func (NoopMetricsObserver) OnLookup(FieldValues, bool)                                  {}
func (NoopMetricsObserver) OnWarm(FieldValues, int, int)                                {}
func (NoopMetricsObserver) OnRelease(FieldValues, int64)                                {}
