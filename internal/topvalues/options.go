package topvalues

import (
	"log/slog"

	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/mem"
	"github.com/hupe1980/fvcache/internal/resource"
)

// Option configures a Registry.
type Option func(*config)

type config struct {
	alloc       *mem.Allocator
	rc          *resource.Controller
	logger      *slog.Logger
	metrics     MetricsObserver
	leafOpts    leaf.Options
	autoWarm    bool
	concurrency int
}

func defaultConfig() config {
	return config{
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetricsObserver{},
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAllocator sets the allocator leaves are built from.
// Without it the registry creates one bound to the resource controller.
func WithAllocator(a *mem.Allocator) Option {
	return func(c *config) {
		c.alloc = a
	}
}

// WithResourceController sets the controller for memory accounting,
// background slots and warm pacing.
func WithResourceController(rc *resource.Controller) Option {
	return func(c *config) {
		c.rc = rc
	}
}

// WithMetricsObserver sets the metrics observer.
func WithMetricsObserver(m MetricsObserver) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLeafOptions sets the leaf construction options.
func WithLeafOptions(o leaf.Options) Option {
	return func(c *config) {
		c.leafOpts = o
	}
}

// WithAutoWarm makes Warm build every leaf that could not be carried over.
// concurrency bounds the parallel builds; values below 1 use the resource
// controller's background worker count.
func WithAutoWarm(enabled bool, concurrency int) Option {
	return func(c *config) {
		c.autoWarm = enabled
		c.concurrency = concurrency
	}
}
