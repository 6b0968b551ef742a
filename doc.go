// Package fvcache provides an uninverted per-field value cache for
// inverted indexes.
//
// An inverted index maps terms to the documents containing them. Sorting,
// faceting and range filtering need the opposite direction: the value of a
// field for a given document. fvcache builds that forward view on demand by
// walking a field's terms once per segment, and keeps it in compact packed
// arrays shared by every query of an index generation.
//
// # Quick Start
//
//	c, _ := fvcache.Open(reader)
//	defer c.Close()
//
//	q, _ := c.NewQuery()
//	defer q.Close()
//
//	prices, _ := q.Numeric(ctx, "price", index.TypeLong, segment)
//	v := prices.Long(doc)
//
//	fruits, _ := q.Sorted(ctx, "fruit", segment)
//	term := fruits.LookupOrd(fruits.OrdVal(doc))
//
// Values are built on first access. Concurrent queries asking for the same
// field and segment wait for a single construction.
//
// # Storage
//
// Numeric values are stored with the smallest width that covers the
// segment's value range: 8 or 16 bits for ints and longs, 32 bits for
// longs that fit, and the full width otherwise. Floats and doubles keep
// their IEEE-754 bits. Large arrays are placed in anonymous memory
// mappings outside the Go heap and are accounted against a memory limit:
//
//	c, _ := fvcache.Open(reader,
//	    fvcache.WithMemoryLimit(512<<20),
//	    fvcache.WithOffHeapThreshold(64<<10),
//	)
//
// String fields are stored as a per-document term ordinal plus a sorted
// dictionary of the segment's terms.
//
// # Missing Values
//
// A document without a value reads as 0 (or ordinal -1). NumericValues.Exists
// tells such documents apart from documents whose value is 0, as long as at
// least one document of the segment lacks the field. When every document
// has a value, a stored 0 is reported as missing.
//
// # Generations
//
// A Query reads the generation that was current when it started. Reopen
// moves the cache to a new generation and carries over the values of
// segments that did not change:
//
//	stats, _ := c.Reopen(ctx, newReader, nil) // match segments by ID
//	fmt.Println(stats.Carried, "leaves reused")
//
// With WithAutoWarm, Reopen also builds every missing leaf of the fields in
// use, bounded by WithWarmConcurrency and paced by WithWarmRate.
//
// # Sorting and Filtering
//
// Query.Comparator orders documents by a field, reading natively columnar
// doc values directly when the segment has them. LongRange, DoubleRange and
// TermRange return matching documents as roaring bitmaps.
//
// # Observability
//
//	metrics := &fvcache.BasicMetricsCollector{}
//	c, _ := fvcache.Open(reader,
//	    fvcache.WithLogger(fvcache.NewJSONLogger(slog.LevelInfo)),
//	    fvcache.WithMetricsCollector(metrics),
//	)
//	fmt.Println(c.Stats().SizeBytes, c.Describe())
package fvcache
