// Package analyzer implements the coverage-duplicate engine: exact-duplicate
// grouping, strict-subset detection, and Jaccard similarity over per-test
// coverage sets.
package analyzer

import (
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/covdup/covdup/internal/executor"
	"github.com/covdup/covdup/internal/hooks"
	"github.com/covdup/covdup/pkg/config"
	"github.com/covdup/covdup/pkg/models"
)

// DefaultThreshold is the similarity threshold used when the caller does not
// supply one.
const DefaultThreshold = 0.7

// Engine owns an insertion-ordered collection of test coverage sets and
// answers the three redundancy queries over it. The engine itself is
// single-threaded; concurrency is confined to the execution strategy's
// worker pool, which only reads the ingested collection.
type Engine struct {
	threshold float64
	strategy  *executor.Strategy
	cache     *executor.MemoCache
	bus       *hooks.Bus

	// Deferred option state, resolved once in New after all options ran.
	parallelOpt *bool
	workersOpt  int
	cacheOpt    *bool

	tests []*models.CoverageSet // insertion order
	index map[string]int        // test name -> position in tests

	faults atomic.Int64
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithThreshold sets the default similarity threshold.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// WithParallel enables worker-pool execution of pairwise comparisons.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallelOpt = &parallel
	}
}

// WithMaxWorkers sets the worker-pool size.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) {
		e.workersOpt = n
	}
}

// WithCache enables in-process memoization of query results.
func WithCache(enabled bool) Option {
	return func(e *Engine) {
		e.cacheOpt = &enabled
	}
}

// WithHooks injects an event bus for lifecycle callbacks.
func WithHooks(bus *hooks.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithConfig applies analysis and performance settings from a config struct.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.threshold = cfg.Analysis.SimilarityThreshold
		e.parallelOpt = &cfg.Performance.EnableParallel
		e.workersOpt = cfg.Performance.MaxWorkers
		e.cacheOpt = &cfg.Performance.EnableCache
	}
}

// New creates an engine. By default comparisons run sequentially with
// memoization enabled and a 0.7 similarity threshold.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold: DefaultThreshold,
		index:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(e)
	}

	parallel := false
	if e.parallelOpt != nil {
		parallel = *e.parallelOpt
	}
	cacheEnabled := true
	if e.cacheOpt != nil {
		cacheEnabled = *e.cacheOpt
	}

	e.strategy = executor.New(
		executor.WithParallel(parallel),
		executor.WithMaxWorkers(e.workersOpt),
		executor.WithFaultHandler(func(recovered any) {
			e.faults.Add(1)
			e.bus.Trigger(hooks.OnWorkerFallback, recovered)
		}),
	)
	e.cache = executor.NewMemoCache(cacheEnabled)
	return e
}

// Ingest validates, normalizes, and stores the coverage for one test.
// Re-ingesting a name overwrites its payload but keeps its original
// insertion position, so output ordering stays stable. Any ingest
// invalidates the whole memo cache.
func (e *Engine) Ingest(testName string, coverage map[string][]int) error {
	cs, err := models.NewCoverageSet(testName, coverage)
	if err != nil {
		e.bus.Trigger(hooks.OnError, err)
		return err
	}

	if pos, ok := e.index[testName]; ok {
		e.tests[pos] = cs
	} else {
		e.index[testName] = len(e.tests)
		e.tests = append(e.tests, cs)
	}
	e.cache.Invalidate()
	return nil
}

// Len returns the number of ingested tests.
func (e *Engine) Len() int {
	return len(e.tests)
}

// TestNames returns the ingested test names in insertion order.
func (e *Engine) TestNames() []string {
	names := make([]string, len(e.tests))
	for i, t := range e.tests {
		names[i] = t.TestName
	}
	return names
}

// Threshold returns the engine's default similarity threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// WorkerFaults returns the number of worker panics recovered via sequential
// fallback since the engine was created. Non-zero values should be surfaced
// to the caller as a warning signal.
func (e *Engine) WorkerFaults() int {
	return int(e.faults.Load())
}

// signatures returns the content signatures in insertion order, for cache
// fingerprinting.
func (e *Engine) signatures() []uint64 {
	sigs := make([]uint64, len(e.tests))
	for i, t := range e.tests {
		sigs[i] = t.Signature()
	}
	return sigs
}

// FindExactDuplicates groups tests whose flattened coverage sets are
// pairwise equal. Partitioning is by content signature, O(N·L); pairwise
// equality only resolves hash collisions. Groups are ordered by the
// insertion order of their first member, members by insertion order.
func (e *Engine) FindExactDuplicates() []models.DuplicateGroup {
	key := executor.Fingerprint("exact", nil, e.signatures())
	if v, ok := e.cache.Get(key); ok {
		return v.([]models.DuplicateGroup)
	}

	groups := e.findExactGroups()

	out := make([]models.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g) < 2 {
			continue
		}
		names := make([]string, len(g))
		for i, idx := range g {
			names[i] = e.tests[idx].TestName
		}
		dg := models.DuplicateGroup{Tests: names}
		e.bus.Trigger(hooks.OnDuplicateFound, dg)
		out = append(out, dg)
	}

	e.cache.Put(key, out)
	return out
}

// findExactGroups partitions test indices into equality classes. Every class
// is returned, including singletons; callers filter by size. Classes appear
// in insertion order of their first member.
func (e *Engine) findExactGroups() [][]int {
	bySig := make(map[uint64][]int, len(e.tests)) // signature -> class heads
	var classes [][]int

	for i, t := range e.tests {
		sig := t.Signature()
		placed := false
		for _, head := range bySig[sig] {
			if e.tests[classes[head][0]].Equal(t) {
				classes[head] = append(classes[head], i)
				placed = true
				break
			}
		}
		if !placed {
			bySig[sig] = append(bySig[sig], len(classes))
			classes = append(classes, []int{i})
		}
	}
	return classes
}

// FindSubsetDuplicates reports every test whose coverage is a strict subset
// of another test's coverage. Exact duplicates are excluded, as are
// zero-coverage tests (they only participate in duplicate groups with other
// zero-coverage tests). Results are ordered by the insertion order of the
// subset test, then of the superset test.
func (e *Engine) FindSubsetDuplicates() []models.SubsetRelation {
	key := executor.Fingerprint("subset", nil, e.signatures())
	if v, ok := e.cache.Get(key); ok {
		return v.([]models.SubsetRelation)
	}

	n := len(e.tests)
	var out []models.SubsetRelation
	if n >= 2 {
		tasks := chunkTasks(e.strategy.Workers(), n, func(lo, hi int) []models.SubsetRelation {
			var part []models.SubsetRelation
			for i := lo; i < hi; i++ {
				a := e.tests[i]
				if a.Empty() {
					continue
				}
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					b := e.tests[j]
					// A strict subset is always smaller, so the size
					// pre-filter removes most pairs before the set test.
					if a.Size() >= b.Size() || !a.SubsetOf(b) {
						continue
					}
					part = append(part, models.SubsetRelation{
						Subset:        a.TestName,
						Superset:      b.TestName,
						CoverageRatio: 1.0,
						SizeRatio:     float64(a.Size()) / float64(b.Size()),
					})
				}
			}
			return part
		})

		parts, _ := executor.Run(e.strategy, tasks)
		out = executor.Merge(parts)
		for _, rel := range out {
			e.bus.Trigger(hooks.OnSubsetFound, rel)
		}
	}
	if out == nil {
		out = []models.SubsetRelation{}
	}

	e.cache.Put(key, out)
	return out
}

// pairRec is an internal similarity candidate carrying insertion indices for
// canonical tie-breaking.
type pairRec struct {
	i, j  int
	score float64
}

// FindSimilarCoverage reports pairs with Jaccard similarity >= threshold,
// excluding pairs already reported as exact or subset duplicates so the
// three result categories stay disjoint. Sorted descending by score, ties
// broken by insertion order of the first member, then the second.
func (e *Engine) FindSimilarCoverage(threshold float64) ([]models.SimilarPair, error) {
	if threshold < 0 || threshold > 1 {
		err := &models.InvalidParameterError{
			Param:  "threshold",
			Value:  threshold,
			Reason: "must be in [0, 1]",
		}
		e.bus.Trigger(hooks.OnError, err)
		return nil, err
	}

	key := executor.Fingerprint("similar", []string{strconv.FormatFloat(threshold, 'g', -1, 64)}, e.signatures())
	if v, ok := e.cache.Get(key); ok {
		return v.([]models.SimilarPair), nil
	}

	n := len(e.tests)
	out := []models.SimilarPair{}
	if n >= 2 {
		tasks := chunkTasks(e.strategy.Workers(), n, func(lo, hi int) []pairRec {
			var part []pairRec
			for i := lo; i < hi; i++ {
				a := e.tests[i]
				if a.Empty() {
					continue
				}
				for j := i + 1; j < n; j++ {
					b := e.tests[j]
					if b.Empty() || a.Equal(b) {
						continue
					}
					if a.SubsetOf(b) || b.SubsetOf(a) {
						continue
					}
					if score := a.Jaccard(b); score >= threshold {
						part = append(part, pairRec{i: i, j: j, score: score})
					}
				}
			}
			return part
		})

		parts, _ := executor.Run(e.strategy, tasks)
		recs := executor.Merge(parts)

		// Canonical order regardless of how work was partitioned.
		sort.Slice(recs, func(x, y int) bool {
			if recs[x].score != recs[y].score {
				return recs[x].score > recs[y].score
			}
			if recs[x].i != recs[y].i {
				return recs[x].i < recs[y].i
			}
			return recs[x].j < recs[y].j
		})

		out = make([]models.SimilarPair, len(recs))
		for k, r := range recs {
			out[k] = models.SimilarPair{
				TestA: e.tests[r.i].TestName,
				TestB: e.tests[r.j].TestName,
				Score: r.score,
			}
			e.bus.Trigger(hooks.OnSimilarFound, out[k])
		}
	}

	e.cache.Put(key, out)
	return out, nil
}

// chunkTasks splits the outer comparison loop [0, n) into bounded contiguous
// ranges so a single slow partition cannot stall the pool disproportionately.
// Task order preserves index order, which keeps merged output canonical.
func chunkTasks[T any](workers, n int, fn func(lo, hi int) []T) []executor.Task[T] {
	chunk := n / (workers * 4)
	if chunk < 1 {
		chunk = 1
	}
	var tasks []executor.Task[T]
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		tasks = append(tasks, func() []T { return fn(lo, hi) })
	}
	return tasks
}

// Analyze runs all three queries at the given threshold and bundles the
// result collections with summary counts.
func (e *Engine) Analyze(threshold float64) (*models.Analysis, error) {
	e.bus.Trigger(hooks.BeforeAnalysis, len(e.tests))

	exact := e.FindExactDuplicates()
	subsets := e.FindSubsetDuplicates()
	similar, err := e.FindSimilarCoverage(threshold)
	if err != nil {
		return nil, err
	}

	a := &models.Analysis{
		ExactGroups: exact,
		Subsets:     subsets,
		Similar:     similar,
		Summary:     e.summarize(exact, subsets, similar, threshold),
	}
	e.bus.Trigger(hooks.AfterAnalysis, a)
	return a, nil
}

// summarize derives the per-category counts for one analysis pass.
func (e *Engine) summarize(exact []models.DuplicateGroup, subsets []models.SubsetRelation, similar []models.SimilarPair, threshold float64) models.Summary {
	s := models.Summary{
		TotalTests:       len(e.tests),
		DuplicateGroups:  len(exact),
		SubsetDuplicates: len(subsets),
		SimilarPairs:     len(similar),
		Threshold:        threshold,
		WorkerFaults:     e.WorkerFaults(),
	}
	for _, g := range exact {
		s.ExactDuplicates += g.Redundant()
	}
	if s.TotalTests > 0 {
		s.DuplicatePercentage = float64(s.ExactDuplicates) / float64(s.TotalTests) * 100
	}
	for _, t := range e.tests {
		if t.Empty() {
			s.ZeroCoverageTests++
		}
	}
	s.DistinctCoverageSets = len(e.findExactGroups())
	return s
}
