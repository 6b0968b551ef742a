package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/hupe1980/fvcache"
	"github.com/hupe1980/fvcache/index"
)

const topN = 5

// report is what fvinspect prints.
type report struct {
	Generation uint64                     `json:"generation"`
	Queries    []queryReport              `json:"queries"`
	Warm       *fvcache.WarmStats         `json:"warm,omitempty"`
	Fields     []fvcache.FieldDescription `json:"fields"`
	Stats      fvcache.Stats              `json:"stats"`
}

// queryReport summarizes the sort and filter run on one field and segment.
type queryReport struct {
	Field   string `json:"field"`
	Type    string `json:"type"`
	Segment int    `json:"segment"`
	Top     []int  `json:"top"`
	Matches uint64 `json:"matches"`
	Native  bool   `json:"native,omitempty"`
	Error   string `json:"error,omitempty"`
}

type flags struct {
	config      string
	segments    int
	docs        int
	seed        uint64
	memoryLimit int64
	autoWarm    bool
	reopen      bool
	format      string
	logLevel    string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fvinspect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags
	fs.StringVarP(&f.config, "config", "c", "", "JSONC corpus config")
	fs.IntVar(&f.segments, "segments", 0, "number of segments")
	fs.IntVar(&f.docs, "docs", 0, "documents per segment")
	fs.Uint64Var(&f.seed, "seed", 0, "random seed")
	fs.Int64Var(&f.memoryLimit, "memory-limit", 0, "memory limit in bytes (0 = unlimited)")
	fs.BoolVar(&f.autoWarm, "auto-warm", false, "build missing values eagerly on reopen")
	fs.BoolVar(&f.reopen, "reopen", false, "open a second generation and report carried values")
	fs.StringVarP(&f.format, "format", "f", "text", "output format: text or json")
	fs.StringVar(&f.logLevel, "log-level", "off", "log level: debug, info, warn, error or off")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	cfg, err := resolveConfig(fs, f)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}

	rep, err := inspect(ctx, cfg, f, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	switch f.format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	default:
		err = writeText(stdout, rep)
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// resolveConfig loads the config file and applies explicitly set flags.
func resolveConfig(fs *flag.FlagSet, f flags) (Config, error) {
	cfg := DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = LoadConfig(f.config); err != nil {
			return Config{}, err
		}
	}

	if fs.Changed("segments") {
		cfg.Segments = f.segments
	}
	if fs.Changed("docs") {
		cfg.Docs = f.docs
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("memory-limit") {
		cfg.MemoryLimit = f.memoryLimit
	}
	if fs.Changed("auto-warm") {
		cfg.AutoWarm = f.autoWarm
	}

	if f.format != "text" && f.format != "json" {
		return Config{}, fmt.Errorf("unknown format %q", f.format)
	}
	return cfg, cfg.Validate()
}

func newLogger(level string, w io.Writer) (*fvcache.Logger, error) {
	if level == "off" {
		return fvcache.NoopLogger(), nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return fvcache.NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func inspect(ctx context.Context, cfg Config, f flags, stderr io.Writer) (*report, error) {
	logger, err := newLogger(f.logLevel, stderr)
	if err != nil {
		return nil, err
	}
	corp, err := newCorpus(cfg)
	if err != nil {
		return nil, err
	}

	opts := []fvcache.Option{
		fvcache.WithLogger(logger),
		fvcache.WithMemoryLimit(cfg.MemoryLimit),
		fvcache.WithAutoWarm(cfg.AutoWarm),
	}
	if cfg.OffHeapThreshold != nil {
		opts = append(opts, fvcache.WithOffHeapThreshold(*cfg.OffHeapThreshold))
	}

	ids := make([]index.SegmentID, cfg.Segments)
	for i := range ids {
		ids[i] = index.SegmentID(i + 1)
	}

	c, err := fvcache.Open(corp.reader(1, ids...), opts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	rep := &report{}
	if rep.Queries, err = runQueries(ctx, c, corp); err != nil {
		return nil, err
	}

	if f.reopen {
		// Drop the first segment and add a new one.
		next := append(slices.Clone(ids[1:]), index.SegmentID(cfg.Segments+1))
		ws, err := c.Reopen(ctx, corp.reader(2, next...), nil)
		if err != nil {
			return nil, err
		}
		rep.Warm = &ws
		if rep.Queries, err = runQueries(ctx, c, corp); err != nil {
			return nil, err
		}
	}

	rep.Generation = c.Reader().Generation()
	rep.Fields = c.Describe()
	rep.Stats = c.Stats()
	return rep, nil
}

// runQueries sorts every segment by every field and filters it by the
// middle half of the field's range.
func runQueries(ctx context.Context, c *fvcache.Cache, corp *corpus) ([]queryReport, error) {
	q, err := c.NewQuery()
	if err != nil {
		return nil, err
	}
	defer q.Close()

	var out []queryReport
	for seg := range len(q.Reader().Segments()) {
		for _, fc := range corp.cfg.Fields {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r := queryReport{Field: fc.Name, Type: fc.Type, Segment: seg}
			if err := runQuery(ctx, q, corp, fc, seg, &r); err != nil {
				if !errors.Is(err, fvcache.ErrConstruction) {
					return nil, err
				}
				r.Error = err.Error()
			}
			out = append(out, r)
		}
	}
	return out, nil
}

func runQuery(ctx context.Context, q *fvcache.Query, corp *corpus, fc FieldConfig, seg int, r *queryReport) error {
	typ := corp.types[fc.Name]
	maxDoc := q.Reader().Segments()[seg].MaxDoc()

	cmp, err := q.Comparator(ctx, fvcache.SortField{Field: fc.Name, Type: typ, Reverse: true, MissingLast: true}, seg)
	if err != nil {
		return err
	}
	r.Native = cmp.Native()
	docs := make([]int, maxDoc)
	for i := range docs {
		docs[i] = i
	}
	slices.SortStableFunc(docs, cmp.Compare)
	r.Top = docs[:min(topN, len(docs))]

	span := fc.Max - fc.Min
	lo, hi := fc.Min+span/4, fc.Max-span/4
	switch typ {
	case index.TypeString:
		bm, err := q.TermRange(ctx, fc.Name, seg, []byte(term(fc.Cardinality/4)), []byte(term(fc.Cardinality*3/4)), true, false)
		if err != nil {
			return err
		}
		r.Matches = bm.GetCardinality()
	case index.TypeFloat, index.TypeDouble:
		bm, err := q.DoubleRange(ctx, fc.Name, typ, seg, float64(lo), float64(hi))
		if err != nil {
			return err
		}
		r.Matches = bm.GetCardinality()
	default:
		bm, err := q.LongRange(ctx, fc.Name, typ, seg, lo, hi)
		if err != nil {
			return err
		}
		r.Matches = bm.GetCardinality()
	}
	return nil
}

func writeText(w io.Writer, rep *report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "generation %d\n\n", rep.Generation)

	fmt.Fprintln(tw, "FIELD\tTYPE\tSEGMENT\tTOP\tMATCHES\tNOTE")
	for _, r := range rep.Queries {
		note := r.Error
		if r.Native {
			note = "doc values"
		}
		top := make([]string, len(r.Top))
		for i, d := range r.Top {
			top[i] = fmt.Sprint(d)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n", r.Field, r.Type, r.Segment, strings.Join(top, ","), r.Matches, note)
	}

	if rep.Warm != nil {
		fmt.Fprintf(tw, "\nreopen: fields=%d carried=%d dropped=%d built=%d failed=%d\n",
			rep.Warm.Fields, rep.Warm.Carried, rep.Warm.Dropped, rep.Warm.Built, rep.Warm.Failed)
	}

	fmt.Fprintln(tw)
	for _, d := range rep.Fields {
		fmt.Fprintln(tw, d.String())
	}
	fmt.Fprintf(tw, "\nmemory: used=%d peak=%d off-heap=%d blocks=%d\n",
		rep.Stats.MemoryUsage, rep.Stats.PeakMemory, rep.Stats.OffHeap, rep.Stats.LiveBlocks)
	return tw.Flush()
}
