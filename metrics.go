package fvcache

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/fvcache/internal/leaf"
	"github.com/hupe1980/fvcache/internal/topvalues"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    buildHistogram prometheus.Histogram
//	    cacheBytes     prometheus.Gauge
//	}
//
//	func (p *PrometheusCollector) RecordBuild(field string, duration time.Duration, bytes int64, err error) {
//	    p.buildHistogram.Observe(duration.Seconds())
//	    p.cacheBytes.Add(float64(bytes))
//	}
type MetricsCollector interface {
	// RecordBuild is called after each leaf construction.
	// bytes is the size of the built leaf, err is nil if successful.
	RecordBuild(field string, duration time.Duration, bytes int64, err error)

	// RecordLookup is called for every field lookup of a query.
	// hit is true when the query had already resolved the field.
	RecordLookup(field string, hit bool)

	// RecordWarm is called after each Reopen with the number of warmed fields,
	// leaves carried over and leaves built eagerly.
	RecordWarm(fields, carried, built int, duration time.Duration)

	// RecordRelease is called when a field's leaves are released.
	RecordRelease(field string, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(string, time.Duration, int64, error) {}
func (NoopMetricsCollector) RecordLookup(string, bool)                       {}
func (NoopMetricsCollector) RecordWarm(int, int, int, time.Duration)         {}
func (NoopMetricsCollector) RecordRelease(string, int64)                     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
	BuildBytes      atomic.Int64
	LookupHits      atomic.Int64
	LookupMisses    atomic.Int64
	WarmCount       atomic.Int64
	WarmCarried     atomic.Int64
	WarmBuilt       atomic.Int64
	ReleaseCount    atomic.Int64
	ReleasedBytes   atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(field string, duration time.Duration, bytes int64, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildBytes.Add(bytes)
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(field string, hit bool) {
	if hit {
		b.LookupHits.Add(1)
	} else {
		b.LookupMisses.Add(1)
	}
}

// RecordWarm implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWarm(fields, carried, built int, duration time.Duration) {
	b.WarmCount.Add(1)
	b.WarmCarried.Add(int64(carried))
	b.WarmBuilt.Add(int64(built))
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(field string, bytes int64) {
	b.ReleaseCount.Add(1)
	b.ReleasedBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:    b.BuildCount.Load(),
		BuildErrors:   b.BuildErrors.Load(),
		BuildAvgNanos: b.getAvgBuildNanos(),
		BuildBytes:    b.BuildBytes.Load(),
		LookupHits:    b.LookupHits.Load(),
		LookupMisses:  b.LookupMisses.Load(),
		WarmCount:     b.WarmCount.Load(),
		WarmCarried:   b.WarmCarried.Load(),
		WarmBuilt:     b.WarmBuilt.Load(),
		ReleaseCount:  b.ReleaseCount.Load(),
		ReleasedBytes: b.ReleasedBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount    int64
	BuildErrors   int64
	BuildAvgNanos int64
	BuildBytes    int64
	LookupHits    int64
	LookupMisses  int64
	WarmCount     int64
	WarmCarried   int64
	WarmBuilt     int64
	ReleaseCount  int64
	ReleasedBytes int64
}

// metricsObserver forwards cache events to a MetricsCollector.
// Per-field warm events are folded into one RecordWarm call by Reopen.
type metricsObserver struct {
	mc MetricsCollector
}

func (o metricsObserver) OnBuild(fv topvalues.FieldValues, d time.Duration, _ leaf.Kind, bytes int64, err error) {
	o.mc.RecordBuild(fv.Field, d, bytes, err)
}

func (o metricsObserver) OnLookup(fv topvalues.FieldValues, hit bool) {
	o.mc.RecordLookup(fv.Field, hit)
}

func (o metricsObserver) OnWarm(topvalues.FieldValues, int, int) {}

func (o metricsObserver) OnRelease(fv topvalues.FieldValues, bytes int64) {
	o.mc.RecordRelease(fv.Field, bytes)
}
