package models

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
)

// signatureVersion prefixes every coverage signature so that cache keys stay
// reproducible across releases. Bump when the canonical byte stream changes.
const signatureVersion = "covdup-sig-v1"

// CoverageSet is the normalized, immutable coverage of a single test:
// for each file, the set of line numbers the test executed. All set-theoretic
// comparisons operate on the flattened set of (file, line) pairs.
type CoverageSet struct {
	TestName string

	files     map[string]*roaring.Bitmap
	fileNames []string // sorted, for deterministic iteration
	size      uint64
	signature uint64
}

// NewCoverageSet validates and normalizes a raw coverage map. Line numbers
// must be >= 1 and file keys non-empty; duplicates within a file collapse.
// An empty map is legal and represents a test that exercised nothing
// trackable. On any malformed entry the whole record is rejected with
// *InvalidInputError.
func NewCoverageSet(testName string, coverage map[string][]int) (*CoverageSet, error) {
	cs := &CoverageSet{
		TestName: testName,
		files:    make(map[string]*roaring.Bitmap, len(coverage)),
	}

	for file, lines := range coverage {
		if file == "" {
			return nil, &InvalidInputError{Test: testName, Reason: "empty file path"}
		}
		bm := roaring.New()
		for _, line := range lines {
			if line < 1 {
				return nil, &InvalidInputError{Test: testName, File: file, Line: line, Reason: "line number must be >= 1"}
			}
			if uint64(line) > math.MaxUint32 {
				return nil, &InvalidInputError{Test: testName, File: file, Line: line, Reason: "line number exceeds uint32 range"}
			}
			bm.Add(uint32(line))
		}
		// A file with no lines contributes nothing to the flattened set.
		// Dropping it keeps equality and signatures purely content-based.
		if bm.IsEmpty() {
			continue
		}
		cs.files[file] = bm
		cs.fileNames = append(cs.fileNames, file)
	}

	sort.Strings(cs.fileNames)
	for _, f := range cs.fileNames {
		cs.size += cs.files[f].GetCardinality()
	}
	cs.signature = cs.computeSignature()
	return cs, nil
}

// computeSignature hashes the canonical flattened representation: the version
// tag, then each file in sorted order followed by its lines ascending.
func (c *CoverageSet) computeSignature() uint64 {
	h := xxhash.New()
	h.WriteString(signatureVersion)

	var buf [4]byte
	for _, f := range c.fileNames {
		h.WriteString("\x00")
		h.WriteString(f)
		h.WriteString("\x00")
		it := c.files[f].Iterator()
		for it.HasNext() {
			binary.LittleEndian.PutUint32(buf[:], it.Next())
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}

// Signature returns the content hash of the flattened coverage set.
// Equal sets always share a signature; collisions are resolved with Equal.
func (c *CoverageSet) Signature() uint64 {
	return c.signature
}

// Size returns the number of distinct (file, line) pairs.
func (c *CoverageSet) Size() uint64 {
	return c.size
}

// Empty reports whether the test covered no lines at all.
func (c *CoverageSet) Empty() bool {
	return c.size == 0
}

// Files returns the covered file paths in sorted order.
func (c *CoverageSet) Files() []string {
	out := make([]string, len(c.fileNames))
	copy(out, c.fileNames)
	return out
}

// Lines returns the covered line numbers for a file in ascending order,
// or nil if the file is not covered.
func (c *CoverageSet) Lines(file string) []int {
	bm, ok := c.files[file]
	if !ok {
		return nil
	}
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Equal reports whether two flattened coverage sets are identical.
func (c *CoverageSet) Equal(other *CoverageSet) bool {
	if c.size != other.size || len(c.files) != len(other.files) {
		return false
	}
	for f, bm := range c.files {
		obm, ok := other.files[f]
		if !ok || !bm.Equals(obm) {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every (file, line) pair of c is also in other.
// Exits early on the first uncovered element. The empty set is a subset of
// everything, including itself.
func (c *CoverageSet) SubsetOf(other *CoverageSet) bool {
	if c.size > other.size {
		return false
	}
	for f, bm := range c.files {
		obm, ok := other.files[f]
		if !ok || bm.AndCardinality(obm) != bm.GetCardinality() {
			return false
		}
	}
	return true
}

// IntersectionSize returns |c ∩ other| over the flattened pairs.
func (c *CoverageSet) IntersectionSize(other *CoverageSet) uint64 {
	// Iterate the smaller file map.
	a, b := c, other
	if len(b.files) < len(a.files) {
		a, b = b, a
	}
	var n uint64
	for f, bm := range a.files {
		if obm, ok := b.files[f]; ok {
			n += bm.AndCardinality(obm)
		}
	}
	return n
}

// Jaccard returns |c ∩ other| / |c ∪ other| over the flattened pairs.
// A zero/zero union yields 0, not 1, so two empty tests never read as
// spuriously identical here.
func (c *CoverageSet) Jaccard(other *CoverageSet) float64 {
	inter := c.IntersectionSize(other)
	union := c.size + other.size - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
