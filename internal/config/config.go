// Package config loads the interpreter's implementation-defined
// tunables: symbol table growth policy, heap soft limit, evaluator
// call-depth guard, and the reader's array-rank bound. It wraps the
// same functional-options surfaces those packages already expose
// (internal/heap.Option, internal/symtab.Option) in a single
// YAML-backed struct a host can load once at startup and then thread
// through as options.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the root of the YAML document a `--config` flag points at.
type Config struct {
	SymbolTable SymbolTableConfig `yaml:"symbolTable"`
	Heap        HeapConfig        `yaml:"heap"`
	Evaluator   EvaluatorConfig   `yaml:"evaluator"`
	Reader      ReaderConfig      `yaml:"reader"`
}

type SymbolTableConfig struct {
	RehashSize      float64 `yaml:"rehashSize"`
	RehashThreshold float64 `yaml:"rehashThreshold"`
}

type HeapConfig struct {
	SoftLimit       int `yaml:"softLimit"`
	InitialCapacity int `yaml:"initialCapacity"`
}

type EvaluatorConfig struct {
	MaxCallDepth int `yaml:"maxCallDepth"`
}

type ReaderConfig struct {
	MaxArrayRank int `yaml:"maxArrayRank"`
}

// Default returns the built-in tunables: rehash size 1.5 and threshold
// 0.8, a heap soft limit of 1,000,000 objects with initial capacity
// 4096, a maximum call depth of 10,000, and a maximum array rank of 64.
func Default() *Config {
	return &Config{
		SymbolTable: SymbolTableConfig{RehashSize: 1.5, RehashThreshold: 0.8},
		Heap:        HeapConfig{SoftLimit: 1_000_000, InitialCapacity: 4096},
		Evaluator:   EvaluatorConfig{MaxCallDepth: 10_000},
		Reader:      ReaderConfig{MaxArrayRank: 64},
	}
}

// LoadFile reads and unmarshals a YAML config file, starting from
// Default() so a partial document only overrides the fields it sets.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
