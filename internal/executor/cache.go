package executor

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/zeebo/blake3"
)

// MemoCache memoizes query results inside one engine instance, keyed by a
// fingerprint of the ingested content plus the query parameters. It is scoped
// to its engine's data and is invalidated as a whole on any mutation, never
// partially. Safe for concurrent reads.
type MemoCache struct {
	mu      sync.RWMutex
	enabled bool
	entries map[string]any
}

// NewMemoCache creates a cache. A disabled cache never hits and never stores.
func NewMemoCache(enabled bool) *MemoCache {
	return &MemoCache{
		enabled: enabled,
		entries: make(map[string]any),
	}
}

// Enabled reports whether memoization is active.
func (c *MemoCache) Enabled() bool {
	return c.enabled
}

// Get returns the memoized value for key, if present.
func (c *MemoCache) Get(key string) (any, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores a value under key.
func (c *MemoCache) Put(key string, v any) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Invalidate drops every entry. Called on any ingest.
func (c *MemoCache) Invalidate() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *MemoCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fingerprint derives a reproducible cache key from the query name, its
// parameters, and the content signatures of the ingested set in insertion
// order. Two engines with identical content and parameters produce identical
// keys.
func Fingerprint(query string, params []string, signatures []uint64) string {
	h := blake3.New()
	h.Write([]byte(query))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(len(signatures))))
	var buf [8]byte
	for _, sig := range signatures {
		binary.LittleEndian.PutUint64(buf[:], sig)
		h.Write(buf[:])
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
