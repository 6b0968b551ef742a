package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes caps the bytes held by built values and scratch
	// arrays. Zero only tracks usage.
	MemoryLimitBytes int64

	// WarmWorkers bounds concurrent eager builds. Zero means one.
	WarmWorkers int

	// WarmBuildsPerSec paces eager builds. Zero disables pacing.
	WarmBuildsPerSec float64

	// WarmBurst is the pacer's bucket size. Zero means one.
	WarmBurst int
}

// Controller accounts memory and admits eager builds. A nil Controller
// tracks nothing and admits everything.
type Controller struct {
	limit  int64
	budget *semaphore.Weighted // nil without a limit
	used   atomic.Int64
	peak   atomic.Int64

	workers int
	slots   *semaphore.Weighted
	pacer   *rate.Limiter // nil without pacing
}

// NewController creates a controller with the given limits.
func NewController(cfg Config) *Controller {
	c := &Controller{
		limit:   max(cfg.MemoryLimitBytes, 0),
		workers: max(cfg.WarmWorkers, 1),
	}
	c.slots = semaphore.NewWeighted(int64(c.workers))
	if c.limit > 0 {
		c.budget = semaphore.NewWeighted(c.limit)
	}
	if cfg.WarmBuildsPerSec > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(cfg.WarmBuildsPerSec), max(cfg.WarmBurst, 1))
	}
	return c
}

// AcquireMemory reserves bytes. It never blocks: a reservation that does
// not fit fails with ErrMemoryLimitExceeded and the caller gives up.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.budget != nil && !c.budget.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}

	used := c.used.Add(bytes)
	for peak := c.peak.Load(); used > peak; peak = c.peak.Load() {
		if c.peak.CompareAndSwap(peak, used) {
			break
		}
	}
	return nil
}

// ReleaseMemory returns bytes reserved by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.budget != nil {
		c.budget.Release(bytes)
	}
	c.used.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// PeakMemoryUsage returns the highest reservation seen.
func (c *Controller) PeakMemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.peak.Load()
}

// MemoryLimit returns the limit in bytes, or 0 when unlimited.
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.limit
}

// WarmWorkers returns the number of concurrent eager builds admitted.
func (c *Controller) WarmWorkers() int {
	if c == nil {
		return 1
	}
	return c.workers
}

// StartWarm blocks until an eager build may start: a worker slot is free
// and the pacer has a token. The returned func frees the slot.
func (c *Controller) StartWarm(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, ctx.Err()
	}
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			c.slots.Release(1)
			return nil, err
		}
	}
	return func() { c.slots.Release(1) }, nil
}
