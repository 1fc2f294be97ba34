package baseline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covdup/covdup/internal/hooks"
	"github.com/covdup/covdup/pkg/models"
)

func sampleBaseline() Baseline {
	return Baseline{
		SavedAt:             time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Commit:              "abc1234",
		TotalTests:          50,
		ExactDuplicates:     3,
		SubsetDuplicates:    2,
		SimilarPairs:        4,
		DuplicatePercentage: 6.0,
		OverallScore:        88.5,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "baseline.yaml")
	want := sampleBaseline()

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromReport(t *testing.T) {
	r := &models.Report{
		GeneratedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Commit:      "abc1234",
		Summary: models.Summary{
			TotalTests:          10,
			ExactDuplicates:     1,
			DuplicatePercentage: 10.0,
		},
		Score: models.QualityScore{Overall: 92.0},
	}

	b := FromReport(r)
	assert.Equal(t, 10, b.TotalTests)
	assert.Equal(t, 1, b.ExactDuplicates)
	assert.Equal(t, 92.0, b.OverallScore)
	assert.Equal(t, "abc1234", b.Commit)
}

func TestGateCheck(t *testing.T) {
	current := sampleBaseline()

	t.Run("all disabled passes", func(t *testing.T) {
		assert.Empty(t, Gate{}.Check(current, nil))
	})

	t.Run("max duplicates", func(t *testing.T) {
		v := Gate{MaxDuplicates: 2}.Check(current, nil)
		require.Len(t, v, 1)
		assert.Equal(t, "max_duplicates", v[0].Rule)
	})

	t.Run("max duplicate percentage", func(t *testing.T) {
		v := Gate{MaxDuplicatePercentage: 5.0}.Check(current, nil)
		require.Len(t, v, 1)
		assert.Equal(t, "max_duplicate_percentage", v[0].Rule)
	})

	t.Run("min overall score", func(t *testing.T) {
		v := Gate{MinOverallScore: 90.0}.Check(current, nil)
		require.Len(t, v, 1)
		assert.Contains(t, v[0].String(), "overall score 88.5")
	})

	t.Run("within limits passes", func(t *testing.T) {
		g := Gate{MaxDuplicates: 10, MaxDuplicatePercentage: 20, MinOverallScore: 50}
		assert.Empty(t, g.Check(current, nil))
	})
}

func TestGateFailOnIncrease(t *testing.T) {
	previous := sampleBaseline()
	current := previous
	current.ExactDuplicates++

	g := Gate{FailOnIncrease: true}
	v := g.Check(current, &previous)
	require.Len(t, v, 1)
	assert.Equal(t, "fail_on_increase", v[0].Rule)

	// No baseline yet: increase cannot be judged, gate passes.
	assert.Empty(t, g.Check(current, nil))

	// Equal counts pass.
	assert.Empty(t, g.Check(previous, &previous))
}

func TestTrendAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.yaml")

	first := sampleBaseline()
	require.NoError(t, AppendTrend(path, first))

	second := first
	second.SavedAt = first.SavedAt.Add(time.Hour)
	second.ExactDuplicates = 5
	require.NoError(t, AppendTrend(path, second))

	entries, err := LoadTrend(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].ExactDuplicates)
	assert.Equal(t, 5, entries[1].ExactDuplicates)
	assert.True(t, entries[1].At.After(entries[0].At))
}

func TestGateCheckNotify(t *testing.T) {
	current := sampleBaseline()
	g := Gate{MaxDuplicates: 1}

	var got []Violation
	bus := hooks.NewBus()
	bus.Register(hooks.OnGateFail, func(hc hooks.Context) {
		got = hc.Data.([]Violation)
	})

	v := g.CheckNotify(current, nil, bus)
	require.NotEmpty(t, v)
	assert.Equal(t, v, got)

	// Passing gate fires nothing, and a nil bus is fine either way.
	got = nil
	assert.Empty(t, Gate{}.CheckNotify(current, nil, bus))
	assert.Nil(t, got)
	assert.NotEmpty(t, g.CheckNotify(current, nil, nil))
}
