package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tailscale/hujson"

	"github.com/hupe1980/fvcache/index"
)

// Config describes the synthetic corpus and the cache settings.
type Config struct {
	Segments         int           `json:"segments"`
	Docs             int           `json:"docs"`
	Seed             uint64        `json:"seed"`
	MemoryLimit      int64         `json:"memory_limit"`       //nolint:tagliatelle // snake_case for config file
	OffHeapThreshold *int          `json:"off_heap_threshold"` //nolint:tagliatelle // snake_case for config file
	AutoWarm         bool          `json:"auto_warm"`          //nolint:tagliatelle // snake_case for config file
	Fields           []FieldConfig `json:"fields"`
}

// FieldConfig describes one generated field.
type FieldConfig struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Density is the fraction of documents that get a value.
	Density float64 `json:"density"`
	// Min and Max bound numeric values.
	Min int64 `json:"min"`
	Max int64 `json:"max"`
	// Cardinality is the number of distinct string terms.
	Cardinality int `json:"cardinality"`
	// DocValues also stores a numeric field column-wise, so sorting by
	// it bypasses the cache.
	DocValues bool `json:"doc_values"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns a small corpus with one field of every type.
func DefaultConfig() Config {
	return Config{
		Segments: 4,
		Docs:     10_000,
		Seed:     1,
		Fields: []FieldConfig{
			{Name: "year", Type: "int", Density: 1, Min: 1990, Max: 2026, DocValues: true},
			{Name: "price", Type: "long", Density: 0.9, Min: -500, Max: 500_000},
			{Name: "weight", Type: "float", Density: 0.5, Min: 0, Max: 100},
			{Name: "rating", Type: "double", Density: 0.75, Min: 0, Max: 5},
			{Name: "category", Type: "string", Density: 0.95, Cardinality: 200},
		},
	}
}

// LoadConfig reads a JSONC config file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	cfg := DefaultConfig()
	defaults := cfg.Fields
	cfg.Fields = nil
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if cfg.Fields == nil {
		cfg.Fields = defaults
	}
	return cfg, nil
}

// Validate checks that the config describes a buildable corpus.
func (c Config) Validate() error {
	var errs []error
	if c.Segments <= 0 {
		errs = append(errs, fmt.Errorf("segments must be positive, got %d", c.Segments))
	}
	if c.Docs <= 0 {
		errs = append(errs, fmt.Errorf("docs must be positive, got %d", c.Docs))
	}
	if len(c.Fields) == 0 {
		errs = append(errs, errors.New("no fields configured"))
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			errs = append(errs, errors.New("field without name"))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("field %q: duplicate", f.Name))
		}
		seen[f.Name] = true

		typ, err := parseType(f.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
			continue
		}
		if f.Density < 0 || f.Density > 1 {
			errs = append(errs, fmt.Errorf("field %q: density %v outside [0,1]", f.Name, f.Density))
		}
		switch {
		case typ.Numeric() && f.Min > f.Max:
			errs = append(errs, fmt.Errorf("field %q: min %d above max %d", f.Name, f.Min, f.Max))
		case typ.Numeric() && f.Max-f.Min+1 <= 0:
			errs = append(errs, fmt.Errorf("field %q: range [%d,%d] too wide", f.Name, f.Min, f.Max))
		case typ == index.TypeInt && (f.Min < math.MinInt32 || f.Max > math.MaxInt32):
			errs = append(errs, fmt.Errorf("field %q: range [%d,%d] exceeds int", f.Name, f.Min, f.Max))
		}
		if typ == index.TypeString && f.Cardinality <= 0 {
			errs = append(errs, fmt.Errorf("field %q: cardinality must be positive", f.Name))
		}
		if typ == index.TypeString && f.DocValues {
			errs = append(errs, fmt.Errorf("field %q: doc values need a numeric type", f.Name))
		}
	}
	return errors.Join(errs...)
}

func parseType(s string) (index.ValueType, error) {
	for _, t := range []index.ValueType{index.TypeInt, index.TypeLong, index.TypeFloat, index.TypeDouble, index.TypeString} {
		if t.String() == s {
			return t, nil
		}
	}
	return index.TypeUnknown, fmt.Errorf("unknown type %q", s)
}
