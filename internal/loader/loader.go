// Package loader reads per-test coverage data from disk, validates it
// against the canonical schema, and enforces resource caps before anything
// reaches the engine.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/covdup/covdup/pkg/config"
	"github.com/covdup/covdup/pkg/models"
)

// coverageSchema is the canonical on-disk format: test name to file path to
// line-number array.
const coverageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "additionalProperties": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1, "maximum": 4294967295}
    }
  }
}`

// TestCoverage is one test's raw coverage in document order.
type TestCoverage struct {
	Name     string
	Coverage map[string][]int
}

// Loader reads and validates coverage files.
type Loader struct {
	limits config.SecurityConfig
	schema *jsonschema.Schema
}

// New creates a loader with the given security limits.
func New(limits config.SecurityConfig) (*Loader, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(coverageSchema))
	if err != nil {
		return nil, fmt.Errorf("parsing coverage schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("coverage.schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding coverage schema: %w", err)
	}
	schema, err := c.Compile("coverage.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling coverage schema: %w", err)
	}
	return &Loader{limits: limits, schema: schema}, nil
}

// Load reads a coverage file and returns its tests in document order, so
// repeated loads of the same file always ingest in the same sequence.
func (l *Loader) Load(path string) ([]TestCoverage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if l.limits.MaxFileSize > 0 && info.Size() > l.limits.MaxFileSize {
		return nil, fmt.Errorf("coverage file %s is %d bytes, limit is %d", path, info.Size(), l.limits.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(data)
}

// Parse validates and decodes raw coverage JSON.
func (l *Loader) Parse(data []byte) ([]TestCoverage, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing coverage data: %w", err)
	}
	if err := l.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("coverage data does not match schema: %w", err)
	}

	tests, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}

	if l.limits.MaxTests > 0 && len(tests) > l.limits.MaxTests {
		return nil, fmt.Errorf("coverage data has %d tests, limit is %d", len(tests), l.limits.MaxTests)
	}
	for _, tc := range tests {
		if err := l.checkRecord(tc); err != nil {
			return nil, err
		}
	}
	return tests, nil
}

// decodeOrdered walks the top-level object with a token decoder to preserve
// document order, which encoding/json maps would discard.
func decodeOrdered(data []byte) ([]TestCoverage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("coverage data must be a JSON object, got %v", tok)
	}

	var tests []TestCoverage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name := tok.(string)

		var coverage map[string][]int
		if err := dec.Decode(&coverage); err != nil {
			return nil, fmt.Errorf("decoding coverage for test %q: %w", name, err)
		}
		tests = append(tests, TestCoverage{Name: name, Coverage: coverage})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return tests, nil
}

// checkRecord applies the security caps and path sanitation one record at a
// time, so the error names the offending test.
func (l *Loader) checkRecord(tc TestCoverage) error {
	if strings.ContainsRune(tc.Name, 0) {
		return &models.InvalidInputError{Test: tc.Name, Reason: "test name contains a null byte"}
	}
	for file, lines := range tc.Coverage {
		if err := checkPath(tc.Name, file); err != nil {
			return err
		}
		if l.limits.MaxLinesPerFile > 0 && len(lines) > l.limits.MaxLinesPerFile {
			return &models.InvalidInputError{
				Test:   tc.Name,
				File:   file,
				Reason: fmt.Sprintf("%d lines exceeds the per-file limit of %d", len(lines), l.limits.MaxLinesPerFile),
			}
		}
	}
	return nil
}

// checkPath rejects file paths that could escape a report or archive root.
// Coverage file paths are identifiers here, never opened, but they flow into
// reports and converters so traversal sequences are refused at the boundary.
func checkPath(test, file string) error {
	if strings.ContainsRune(file, 0) {
		return &models.InvalidInputError{Test: test, File: file, Reason: "file path contains a null byte"}
	}
	for _, part := range strings.Split(strings.ReplaceAll(file, "\\", "/"), "/") {
		if part == ".." {
			return &models.InvalidInputError{Test: test, File: file, Reason: "file path contains a parent-directory reference"}
		}
	}
	return nil
}
