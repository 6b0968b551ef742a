package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("JSONC", func(t *testing.T) {
		cfg, err := parseConfig([]byte(`{
			// two small segments
			"segments": 2,
			"docs": 50,
			"fields": [
				{"name": "price", "type": "long", "density": 0.5, "min": 1, "max": 9},
			],
		}`))
		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Segments)
		assert.Equal(t, 50, cfg.Docs)
		assert.Equal(t, uint64(1), cfg.Seed, "unset keys keep their default")
		require.Len(t, cfg.Fields, 1)
		assert.Equal(t, FieldConfig{Name: "price", Type: "long", Density: 0.5, Min: 1, Max: 9}, cfg.Fields[0])
		assert.NoError(t, cfg.Validate())
	})

	t.Run("DefaultFields", func(t *testing.T) {
		cfg, err := parseConfig([]byte(`{"docs": 10}`))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Fields, cfg.Fields)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := parseConfig([]byte(`{"docs": }`))
		assert.ErrorContains(t, err, "invalid JSONC")

		_, err = parseConfig([]byte(`{"docs": "many"}`))
		assert.ErrorContains(t, err, "invalid JSON")
	})
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"segments": 3 /* three */}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Segments)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.ErrorContains(t, err, "read config")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name  string
		field FieldConfig
		want  string
	}{
		{"UnknownType", FieldConfig{Name: "x", Type: "decimal"}, `unknown type "decimal"`},
		{"Density", FieldConfig{Name: "x", Type: "long", Density: 2}, "density"},
		{"MinAboveMax", FieldConfig{Name: "x", Type: "long", Min: 5, Max: 1}, "above max"},
		{"TooWide", FieldConfig{Name: "x", Type: "long", Min: -1 << 63, Max: 1<<63 - 1}, "too wide"},
		{"IntOverflow", FieldConfig{Name: "x", Type: "int", Max: 1 << 40}, "exceeds int"},
		{"Cardinality", FieldConfig{Name: "x", Type: "string"}, "cardinality"},
		{"StringDocValues", FieldConfig{Name: "x", Type: "string", Cardinality: 1, DocValues: true}, "doc values"},
		{"NoName", FieldConfig{Type: "long"}, "without name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Fields = []FieldConfig{tt.field}
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := DefaultConfig()
	cfg.Segments, cfg.Docs = 0, -1
	cfg.Fields = append(cfg.Fields, cfg.Fields[0])
	err := cfg.Validate()
	assert.ErrorContains(t, err, "segments must be positive")
	assert.ErrorContains(t, err, "docs must be positive")
	assert.ErrorContains(t, err, "duplicate")
}
