package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.7, cfg.Analysis.SimilarityThreshold)
	assert.True(t, cfg.Performance.EnableParallel)
	assert.Equal(t, 0, cfg.Performance.MaxWorkers)
	assert.Equal(t, int64(100*1024*1024), cfg.Security.MaxFileSize)
	assert.Equal(t, 100_000, cfg.Security.MaxTests)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "covdup.toml", `
[analysis]
similarity_threshold = 0.85

[performance]
enable_parallel = false
max_workers = 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.85, cfg.Analysis.SimilarityThreshold)
	assert.False(t, cfg.Performance.EnableParallel)
	assert.Equal(t, 4, cfg.Performance.MaxWorkers)
	// Unset sections keep their defaults.
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "covdup.yaml", `
analysis:
  similarity_threshold: 0.9
output:
  format: json
  color: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Analysis.SimilarityThreshold)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "covdup.json", `{
  "security": {"max_tests": 500}
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Security.MaxTests)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "covdup.toml", `
[analysis]
similarity_threshold = 0.6
`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := LoadOrDefault()
	assert.Equal(t, 0.6, cfg.Analysis.SimilarityThreshold)
}

func TestLoadOrDefault_NoFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := LoadOrDefault()
	assert.Equal(t, DefaultConfig(), cfg)
}
