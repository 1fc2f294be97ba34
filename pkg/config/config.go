package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for covdup.
type Config struct {
	Analysis    AnalysisConfig    `koanf:"analysis"`
	Performance PerformanceConfig `koanf:"performance"`
	Security    SecurityConfig    `koanf:"security"`
	Cache       CacheConfig       `koanf:"cache"`
	Output      OutputConfig      `koanf:"output"`
}

// AnalysisConfig controls the duplicate engine's query parameters.
type AnalysisConfig struct {
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
}

// PerformanceConfig controls parallel execution and memoization.
type PerformanceConfig struct {
	EnableParallel bool `koanf:"enable_parallel"`
	MaxWorkers     int  `koanf:"max_workers"`
	EnableCache    bool `koanf:"enable_cache"`
}

// SecurityConfig caps resource consumption at the input boundary.
type SecurityConfig struct {
	MaxFileSize     int64 `koanf:"max_file_size"` // bytes
	MaxTests        int   `koanf:"max_tests"`
	MaxLinesPerFile int   `koanf:"max_lines_per_file"`
}

// CacheConfig controls the cross-run file cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
	TTL     int    `koanf:"ttl"` // hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, csv, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SimilarityThreshold: 0.7,
		},
		Performance: PerformanceConfig{
			EnableParallel: true,
			MaxWorkers:     0, // NumCPU
			EnableCache:    true,
		},
		Security: SecurityConfig{
			MaxFileSize:     100 * 1024 * 1024,
			MaxTests:        100_000,
			MaxLinesPerFile: 1_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".covdup/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, picking the parser by extension.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries standard locations and falls back to defaults.
func LoadOrDefault() *Config {
	names := []string{
		"covdup.toml", "covdup.yaml", "covdup.yml", "covdup.json",
		".covdup.toml", ".covdup.yaml", ".covdup.yml", ".covdup.json",
	}
	for _, dir := range []string{".", ".covdup"} {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if cfg, err := Load(path); err == nil {
					return cfg
				}
			}
		}
	}
	return DefaultConfig()
}
