// Package resource implements the Controller shared by caches and their
// allocators.
//
// The Controller governs two things:
//
//   - Memory: bytes held by packed arrays, term dictionaries and scratch
//     arrays. Reservations never block; a build that does not fit fails.
//   - Eager builds: a bounded number of worker slots, paced by a token
//     bucket so that a reopen does not rebuild everything at once.
//
// # Memory
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(n); err != nil {
//	    // ErrMemoryLimitExceeded: the caller fails the construction
//	}
//	defer rc.ReleaseMemory(n)
//
// # Eager Builds
//
//	done, err := rc.StartWarm(ctx)
//	if err != nil {
//	    return err // ctx ended while waiting
//	}
//	defer done()
//
// All methods accept a nil Controller, which tracks nothing and admits
// everything.
package resource
