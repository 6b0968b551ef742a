// Package topvalues coordinates the per-segment leaves of one field.
//
// A TopValues owns one slot per segment of an index generation and builds
// each leaf at most once, on first access. A Registry maps field keys to
// their TopValues for one generation; a Query memoizes registry lookups for
// the duration of a request and holds a reference to every TopValues it
// returned until it is closed.
//
// Lock order is Registry shard → TopValues → slot placeholder. The TopValues
// lock is held only for slot bookkeeping; construction runs under the
// placeholder alone, so different segments and fields never contend.
//
// When the index moves to a new generation, Warm creates the next Registry.
// Leaves of segments that survived are carried over by reference; the rest
// start absent and may be built eagerly in the background.
package topvalues
