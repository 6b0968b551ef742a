package fvcache

import (
	"log/slog"

	"github.com/hupe1980/fvcache/internal/resource"
)

// ResourceConfig holds the limits of a ResourceController.
type ResourceConfig = resource.Config

// ResourceController accounts memory, background build slots and warm
// pacing. One controller can be shared by several caches.
type ResourceController = resource.Controller

// NewResourceController creates a controller with the given limits.
func NewResourceController(cfg ResourceConfig) *ResourceController {
	return resource.NewController(cfg)
}

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
	memoryLimit      int64
	offHeapThreshold *int
	autoWarm         bool
	warmRate         float64
	warmBurst        int
	warmConcurrency  int
	arenaBlockSize   int
}

// Option configures Open.
type Option func(*options)

// WithMetricsCollector configures metrics collection for builds, lookups,
// warms and releases.
//
// Example:
//
//	metrics := &fvcache.BasicMetricsCollector{}
//	c, _ := fvcache.Open(reader, fvcache.WithMetricsCollector(metrics))
//	// ... run queries ...
//	stats := metrics.GetStats()
//	fmt.Printf("Builds: %d, Avg latency: %dns\n", stats.BuildCount, stats.BuildAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := fvcache.NewJSONLogger(slog.LevelInfo)
//	c, _ := fvcache.Open(reader, fvcache.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit caps the memory held by built values. A build that would
// exceed the limit fails with ErrMemoryLimitExceeded.
// Ignored when WithResourceController is set.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithResourceController shares a resource controller with other caches.
// It takes precedence over WithMemoryLimit and WithWarmRate.
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithOffHeapThreshold sets the smallest array size, in bytes, that is
// placed in an anonymous memory mapping instead of the Go heap.
// Zero maps everything; a negative value keeps everything on the heap.
func WithOffHeapThreshold(bytes int) Option {
	return func(o *options) {
		o.offHeapThreshold = &bytes
	}
}

// WithAutoWarm makes Reopen build, in the background pool, every leaf that
// could not be carried over from the previous generation.
func WithAutoWarm(enabled bool) Option {
	return func(o *options) {
		o.autoWarm = enabled
	}
}

// WithWarmRate limits eager builds during Reopen to perSec, with the given burst.
func WithWarmRate(perSec float64, burst int) Option {
	return func(o *options) {
		o.warmRate = perSec
		o.warmBurst = burst
	}
}

// WithWarmConcurrency bounds the number of parallel eager builds.
func WithWarmConcurrency(n int) Option {
	return func(o *options) {
		o.warmConcurrency = n
	}
}

// WithArenaBlockSize sets the page size of string term dictionaries during
// construction. Terms longer than the page size minus two bytes fail with
// ErrEntryTooLarge.
func WithArenaBlockSize(bytes int) Option {
	return func(o *options) {
		o.arenaBlockSize = bytes
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
