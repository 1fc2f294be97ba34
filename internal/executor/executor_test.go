package executor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Sequential(t *testing.T) {
	s := New()
	tasks := []Task[int]{
		func() []int { return []int{1, 2} },
		func() []int { return nil },
		func() []int { return []int{3} },
	}

	parts, faults := Run(s, tasks)
	require.Len(t, parts, 3)
	assert.Zero(t, faults)
	assert.Equal(t, []int{1, 2, 3}, Merge(parts))
}

func TestRun_ParallelPreservesTaskOrder(t *testing.T) {
	s := New(WithParallel(true), WithMaxWorkers(4))

	var tasks []Task[int]
	for i := 0; i < 100; i++ {
		tasks = append(tasks, func() []int { return []int{i} })
	}

	parts, faults := Run(s, tasks)
	assert.Zero(t, faults)
	merged := Merge(parts)
	require.Len(t, merged, 100)
	for i, v := range merged {
		assert.Equal(t, i, v)
	}
}

func TestRun_PanicFallsBackSequentially(t *testing.T) {
	var recovered []any
	s := New(
		WithParallel(true),
		WithMaxWorkers(2),
		WithFaultHandler(func(r any) { recovered = append(recovered, r) }),
	)

	attempt := 0
	tasks := []Task[int]{
		func() []int { return []int{1} },
		func() []int {
			attempt++
			if attempt == 1 {
				panic("worker died")
			}
			return []int{2}
		},
		func() []int { return []int{3} },
	}

	parts, faults := Run(s, tasks)
	assert.Equal(t, 1, faults)
	require.Len(t, recovered, 1)
	assert.Equal(t, "worker died", recovered[0])
	assert.Equal(t, []int{1, 2, 3}, Merge(parts))
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, New(WithParallel(true), WithMaxWorkers(3)).Workers())
	assert.GreaterOrEqual(t, New().Workers(), 1)
	assert.False(t, New().Parallel())
}

func TestRun_Empty(t *testing.T) {
	parts, faults := Run[int](New(), nil)
	assert.Empty(t, parts)
	assert.Zero(t, faults)
}

func TestMerge(t *testing.T) {
	assert.Empty(t, Merge[string](nil))
	assert.Equal(t, []string{"a", "b"}, Merge([][]string{{"a"}, nil, {"b"}}))
}

func TestMemoCache(t *testing.T) {
	c := NewMemoCache(true)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, c.Len())

	c.Invalidate()
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestMemoCache_Disabled(t *testing.T) {
	c := NewMemoCache(false)
	c.Put("k", 42)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.False(t, c.Enabled())
}

func TestFingerprint(t *testing.T) {
	sigs := []uint64{1, 2, 3}

	a := Fingerprint("exact", nil, sigs)
	b := Fingerprint("exact", nil, []uint64{1, 2, 3})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, Fingerprint("subset", nil, sigs))
	assert.NotEqual(t, a, Fingerprint("exact", []string{"0.7"}, sigs))
	assert.NotEqual(t, a, Fingerprint("exact", nil, []uint64{3, 2, 1}))
	assert.Len(t, a, 32)
}

func TestFingerprint_ParamBoundaries(t *testing.T) {
	// Parameter concatenation must not collide across boundaries.
	a := Fingerprint("q", []string{"ab", "c"}, nil)
	b := Fingerprint("q", []string{"a", "bc"}, nil)
	assert.NotEqual(t, a, b)
}

func ExampleMerge() {
	parts := [][]int{{1, 2}, {3}}
	fmt.Println(Merge(parts))
	// Output: [1 2 3]
}
