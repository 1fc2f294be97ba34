package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covdup/covdup/pkg/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Summary:     models.Summary{TotalTests: 10, ExactDuplicates: 2},
		Score:       models.QualityScore{Overall: 91.5, Grade: "A-"},
	}
}

func TestStoreFetchRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	require.NoError(t, err)

	hash := HashBytes([]byte(`{"t": {"f.py": [1]}}`))
	key := Key(hash, 0.7)

	_, ok := c.Fetch(key, hash)
	assert.False(t, ok)

	require.NoError(t, c.Store(key, hash, sampleReport()))
	got, ok := c.Fetch(key, hash)
	require.True(t, ok)
	assert.Equal(t, 10, got.Summary.TotalTests)
	assert.Equal(t, "A-", got.Score.Grade)
}

func TestFetch_InputHashMismatch(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	require.NoError(t, err)

	key := Key("aaaa", 0.7)
	require.NoError(t, c.Store(key, "aaaa", sampleReport()))

	_, ok := c.Fetch(key, "bbbb")
	assert.False(t, ok)
}

func TestKeyVariesWithThreshold(t *testing.T) {
	assert.NotEqual(t, Key("h", 0.7), Key("h", 0.8))
	assert.NotEqual(t, Key("h1", 0.7), Key("h2", 0.7))
}

func TestDisabledCache(t *testing.T) {
	c, err := New("", 24, false)
	require.NoError(t, err)

	assert.False(t, c.Enabled())
	require.NoError(t, c.Store("k", "h", sampleReport()))
	_, ok := c.Fetch("k", "h")
	assert.False(t, ok)

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestExpiredEntryEvicted(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 0, true) // zero TTL: everything is already expired
	require.NoError(t, err)

	key := Key("h", 0.7)
	require.NoError(t, c.Store(key, "h", sampleReport()))

	_, ok := c.Fetch(key, "h")
	assert.False(t, ok)

	// The expired file was removed on read.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInvalidateAndClear(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, 24, true)
	require.NoError(t, err)

	require.NoError(t, c.Store(Key("h", 0.7), "h", sampleReport()))
	require.NoError(t, c.Invalidate(Key("h", 0.7)))
	require.NoError(t, c.Invalidate(Key("h", 0.7))) // already gone, still fine

	require.NoError(t, c.Store(Key("h", 0.8), "h", sampleReport()))
	require.NoError(t, c.Clear())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cov.json")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	h, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("abc")), h)
	assert.Len(t, h, 64)
}

func TestGetStats(t *testing.T) {
	c, err := New(t.TempDir(), 24, true)
	require.NoError(t, err)

	require.NoError(t, c.Store(Key("h1", 0.7), "h1", sampleReport()))
	require.NoError(t, c.Store(Key("h2", 0.7), "h2", sampleReport()))

	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Positive(t, stats.TotalSize)
}
