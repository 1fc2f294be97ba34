package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covdup/covdup/pkg/config"
	"github.com/covdup/covdup/pkg/models"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := New(config.DefaultConfig().Security)
	require.NoError(t, err)
	return l
}

func TestParse(t *testing.T) {
	l := newLoader(t)

	tests, err := l.Parse([]byte(`{
		"test_b": {"src/app.py": [3, 1, 2]},
		"test_a": {"src/app.py": [1], "src/util.py": [10]}
	}`))
	require.NoError(t, err)

	require.Len(t, tests, 2)
	assert.Equal(t, "test_b", tests[0].Name)
	assert.Equal(t, "test_a", tests[1].Name)
	assert.Equal(t, []int{3, 1, 2}, tests[0].Coverage["src/app.py"])
}

func TestParse_DocumentOrderStable(t *testing.T) {
	l := newLoader(t)
	data := []byte(`{"z": {"f": [1]}, "a": {"f": [2]}, "m": {"f": [3]}}`)

	for i := 0; i < 5; i++ {
		tests, err := l.Parse(data)
		require.NoError(t, err)
		assert.Equal(t, "z", tests[0].Name)
		assert.Equal(t, "a", tests[1].Name)
		assert.Equal(t, "m", tests[2].Name)
	}
}

func TestParse_SchemaViolations(t *testing.T) {
	l := newLoader(t)

	cases := []struct {
		name string
		data string
	}{
		{"not an object", `[1, 2]`},
		{"lines not an array", `{"t": {"f.py": 5}}`},
		{"line not an integer", `{"t": {"f.py": ["x"]}}`},
		{"line below one", `{"t": {"f.py": [0]}}`},
		{"coverage not an object", `{"t": 7}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := newLoader(t).Parse([]byte(`{"t": `))
	assert.Error(t, err)
}

func TestParse_MaxTestsCap(t *testing.T) {
	limits := config.DefaultConfig().Security
	limits.MaxTests = 2
	l, err := New(limits)
	require.NoError(t, err)

	_, err = l.Parse([]byte(`{"a": {}, "b": {}, "c": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 2")
}

func TestParse_MaxLinesPerFileCap(t *testing.T) {
	limits := config.DefaultConfig().Security
	limits.MaxLinesPerFile = 2
	l, err := New(limits)
	require.NoError(t, err)

	_, err = l.Parse([]byte(`{"t": {"f.py": [1, 2, 3]}}`))
	var ierr *models.InvalidInputError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "t", ierr.Test)
	assert.Equal(t, "f.py", ierr.File)
}

func TestParse_PathTraversalRejected(t *testing.T) {
	l := newLoader(t)

	// `..\\win\\path` is the JSON encoding of the path ..\win\path; a raw
	// backslash would be an invalid JSON string escape.
	for _, path := range []string{"../etc/passwd", "a/../../b", `..\\win\\path`} {
		_, err := l.Parse([]byte(`{"t": {"` + path + `": [1]}}`))
		var ierr *models.InvalidInputError
		require.ErrorAs(t, err, &ierr, "path=%s", path)
	}

	// Dots inside a name are fine.
	_, err := l.Parse([]byte(`{"t": {"pkg/file..test.go": [1]}}`))
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"t1": {"f.py": [1, 2]}}`), 0o644))

	tests, err := newLoader(t).Load(path)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "t1", tests[0].Name)
}

func TestLoad_FileSizeCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"t1": {"f.py": [1, 2]}}`), 0o644))

	limits := config.DefaultConfig().Security
	limits.MaxFileSize = 4
	l, err := New(limits)
	require.NoError(t, err)

	_, err = l.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 4")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newLoader(t).Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
