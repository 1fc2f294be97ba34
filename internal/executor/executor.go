// Package executor runs independent comparison partitions either sequentially
// or on a bounded worker pool, with identical output either way.
package executor

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is applied to NumCPU when no worker count is set.
// The comparison workload is CPU-bound, so 1x is the right default.
const DefaultWorkerMultiplier = 1

// Task is one independent unit of comparison work. Tasks must not share
// mutable state; they read the ingested collection only.
type Task[T any] func() []T

// FaultFunc is invoked once per recovered worker panic with the recovered
// value. Faults are surfaced, never silently hidden.
type FaultFunc func(recovered any)

// Strategy decides how a batch of tasks executes. The zero value runs
// sequentially.
type Strategy struct {
	parallel   bool
	maxWorkers int
	onFault    FaultFunc
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithParallel enables worker-pool execution.
func WithParallel(parallel bool) Option {
	return func(s *Strategy) {
		s.parallel = parallel
	}
}

// WithMaxWorkers sets the pool size. Values < 1 fall back to the default.
func WithMaxWorkers(n int) Option {
	return func(s *Strategy) {
		s.maxWorkers = n
	}
}

// WithFaultHandler sets the callback for recovered worker panics.
func WithFaultHandler(fn FaultFunc) Option {
	return func(s *Strategy) {
		s.onFault = fn
	}
}

// New creates a Strategy.
func New(opts ...Option) *Strategy {
	s := &Strategy{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Parallel reports whether worker-pool execution is enabled.
func (s *Strategy) Parallel() bool {
	return s.parallel
}

// Workers returns the effective pool size.
func (s *Strategy) Workers() int {
	if s.maxWorkers > 0 {
		return s.maxWorkers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// Run executes all tasks and returns their partial results indexed by task
// position, plus the number of recovered worker faults. Results are slotted
// by task index, never by completion order, so parallel runs merge to exactly
// the sequential output. A task whose worker panics is retried sequentially
// on the calling goroutine (graceful degradation, not abort).
func Run[T any](s *Strategy, tasks []Task[T]) ([][]T, int) {
	if len(tasks) == 0 {
		return nil, 0
	}

	results := make([][]T, len(tasks))

	if !s.parallel || len(tasks) == 1 {
		for i, task := range tasks {
			results[i] = task()
		}
		return results, 0
	}

	var (
		mu     sync.Mutex
		failed []int
	)

	p := pool.New().WithMaxGoroutines(s.Workers())
	for i, task := range tasks {
		p.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					if s.onFault != nil {
						s.onFault(r)
					}
					mu.Lock()
					failed = append(failed, i)
					mu.Unlock()
				}
			}()
			results[i] = task()
		})
	}
	p.Wait()

	// Sequential fallback for any partition whose worker panicked.
	for _, i := range failed {
		results[i] = tasks[i]()
	}

	return results, len(failed)
}

// Merge flattens per-task partial results in task order.
func Merge[T any](parts [][]T) []T {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
