// Package config loads the engine's tunable parameters from a TOML file,
// following the teacher's own `internal/parser/toml` convention: a
// plain exported struct tagged with `toml:"..."`, decoded with
// `github.com/BurntSushi/toml`, with defaults applied for anything the
// file omits.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// EngineConfig holds the engine's tunable parameters: a string-pool block
// size and a duplicate-hint capacity for the builder, and the planner's
// preference-score weights. Only the planner weights take effect (through
// planner.BuildWithConfig); no package reads the BuilderConfig fields.
type EngineConfig struct {
	Builder BuilderConfig `toml:"builder"`
	Planner PlannerConfig `toml:"planner"`
}

// BuilderConfig controls internal/builder's resource sizing.
type BuilderConfig struct {
	StringPoolBlockSize   int `toml:"string_pool_block_size"`
	DuplicateHintCapacity int `toml:"duplicate_hint_capacity"`
}

// PlannerConfig controls internal/planner's cost model. Scores follow
// preferenceScore's ordering (lower runs first); overriding them lets a
// caller tune the model per workload without recompiling.
type PlannerConfig struct {
	IsNullScore      int `toml:"is_null_score"`
	SetIdSortedScore int `toml:"set_id_sorted_score"`
	SortedScore      int `toml:"sorted_score"`
	UnsortedScore    int `toml:"unsorted_score"`
	StringScanScore  int `toml:"string_scan_score"`
	PatternScore     int `toml:"pattern_score"`
}

// Default returns the configuration the engine uses when no file is
// supplied; its planner weights are the ones planner.Build uses.
func Default() EngineConfig {
	return EngineConfig{
		Builder: BuilderConfig{
			StringPoolBlockSize:   4096,
			DuplicateHintCapacity: 1024,
		},
		Planner: PlannerConfig{
			IsNullScore:      1,
			SetIdSortedScore: 0,
			SortedScore:      2,
			UnsortedScore:    3,
			StringScanScore:  5,
			PatternScore:     10,
		},
	}
}

// Load reads and decodes a TOML config file at path, starting from
// Default() so a file may override only the fields it cares about.
func Load(path string) (EngineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a TOML document from r into Default()'s configuration.
func Parse(r io.Reader) (EngineConfig, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}
