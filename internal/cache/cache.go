// Package cache persists analysis reports across runs, keyed by the content
// hash of the coverage input plus the analysis parameters. A warm cache lets
// repeated CI runs on unchanged coverage skip the pairwise comparisons
// entirely.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/covdup/covdup/pkg/models"
)

// Cache is a file-backed report cache with TTL expiry.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// entry is the on-disk envelope around a cached report.
type entry struct {
	InputHash string         `json:"input_hash"`
	Timestamp time.Time      `json:"timestamp"`
	Report    *models.Report `json:"report"`
}

// New creates a cache rooted at dir. A disabled cache never hits and never
// writes.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache is active.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashFile computes the BLAKE3 hash of a coverage file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes the BLAKE3 hash of raw coverage bytes.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Key derives the cache key for one analysis run: the coverage input hash
// combined with the parameters that change the result.
func Key(inputHash string, threshold float64) string {
	return fmt.Sprintf("%s:t=%.4f", inputHash, threshold)
}

// Fetch returns the cached report for key if the stored input hash still
// matches and the entry has not expired.
func (c *Cache) Fetch(key, inputHash string) (*models.Report, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false
	}
	if e.InputHash != inputHash {
		return nil, false
	}
	if time.Since(e.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}
	return e.Report, true
}

// Store writes a report under key.
func (c *Cache) Store(key, inputHash string, report *models.Report) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(entry{
		InputHash: inputHash,
		Timestamp: time.Now(),
		Report:    report,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0o600)
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the key into a filename so parameter strings never leak
// into paths.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats summarizes cache contents for the cache CLI subcommand.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory and aggregates entry stats.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, err
	}

	now := time.Now()
	if !oldest.IsZero() {
		stats.OldestAge = now.Sub(oldest)
		stats.NewestAge = now.Sub(newest)
	}
	return stats, nil
}
