package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// coveragePyFile is the per-file payload of a coverage.py JSON report
// produced with dynamic contexts enabled.
type coveragePyFile struct {
	ExecutedLines []int               `json:"executed_lines"`
	Contexts      map[string][]string `json:"contexts"`
}

type coveragePyReport struct {
	Files map[string]coveragePyFile `json:"files"`
}

// AggregateTest names the single pseudo-test produced from a coverage.py
// report that was generated without dynamic contexts.
const AggregateTest = "all_tests"

// FromCoveragePy converts a coverage.py JSON report into per-test coverage.
// Reports produced with dynamic contexts yield one record per test; context
// labels have the form "test_name|phase", the phase is dropped, and the
// empty context (lines run outside any test) is skipped. Reports without
// contexts fall back to a single AggregateTest record built from
// executed_lines, which lets the loader ingest it but supports no pairwise
// analysis.
func FromCoveragePy(r io.Reader) ([]TestCoverage, error) {
	var report coveragePyReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("parsing coverage.py report: %w", err)
	}
	if len(report.Files) == 0 {
		return nil, fmt.Errorf("coverage.py report has no files section")
	}

	byTest := make(map[string]map[string][]int)
	hasContexts := false
	for file, fc := range report.Files {
		for lineStr, contexts := range fc.Contexts {
			line, err := strconv.Atoi(lineStr)
			if err != nil {
				return nil, fmt.Errorf("coverage.py report: bad line key %q in %s", lineStr, file)
			}
			for _, ctx := range contexts {
				if ctx == "" {
					continue
				}
				hasContexts = true
				test, _, _ := strings.Cut(ctx, "|")
				if byTest[test] == nil {
					byTest[test] = make(map[string][]int)
				}
				byTest[test][file] = append(byTest[test][file], line)
			}
		}
	}
	if !hasContexts {
		aggregate := make(map[string][]int)
		for file, fc := range report.Files {
			if len(fc.ExecutedLines) > 0 {
				aggregate[file] = append([]int(nil), fc.ExecutedLines...)
			}
		}
		if len(aggregate) == 0 {
			return nil, fmt.Errorf("coverage.py report has no dynamic contexts and no executed lines; rerun with dynamic_context = test_function")
		}
		return []TestCoverage{{Name: AggregateTest, Coverage: aggregate}}, nil
	}

	names := make([]string, 0, len(byTest))
	for name := range byTest {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]TestCoverage, len(names))
	for i, name := range names {
		out[i] = TestCoverage{Name: name, Coverage: byTest[name]}
	}
	return out, nil
}

// FromGoCover converts a Go cover profile into a single coverage record.
// Go profiles are whole-run, not per-test, so the result is one record named
// testName covering every line of every block with a non-zero count.
func FromGoCover(r io.Reader, testName string) (TestCoverage, error) {
	tc := TestCoverage{Name: testName, Coverage: make(map[string][]int)}

	seen := make(map[string]map[int]struct{})
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lineNo == 1 {
			if !strings.HasPrefix(line, "mode:") {
				return tc, fmt.Errorf("cover profile line 1: expected mode header, got %q", line)
			}
			continue
		}

		file, block, ok := strings.Cut(line, ":")
		if !ok {
			return tc, fmt.Errorf("cover profile line %d: malformed entry %q", lineNo, line)
		}
		fields := strings.Fields(block)
		if len(fields) != 3 {
			return tc, fmt.Errorf("cover profile line %d: malformed entry %q", lineNo, line)
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return tc, fmt.Errorf("cover profile line %d: bad count %q", lineNo, fields[2])
		}
		if count == 0 {
			continue
		}

		start, end, err := blockLines(fields[0])
		if err != nil {
			return tc, fmt.Errorf("cover profile line %d: %w", lineNo, err)
		}
		if seen[file] == nil {
			seen[file] = make(map[int]struct{})
		}
		for l := start; l <= end; l++ {
			seen[file][l] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return tc, err
	}

	for file, lines := range seen {
		out := make([]int, 0, len(lines))
		for l := range lines {
			out = append(out, l)
		}
		sort.Ints(out)
		tc.Coverage[file] = out
	}
	return tc, nil
}

// blockLines extracts the start and end line from a cover block range like
// "10.2,12.16".
func blockLines(rng string) (int, int, error) {
	from, to, ok := strings.Cut(rng, ",")
	if !ok {
		return 0, 0, fmt.Errorf("bad block range %q", rng)
	}
	start, err := lineOf(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := lineOf(to)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func lineOf(pos string) (int, error) {
	lineStr, _, ok := strings.Cut(pos, ".")
	if !ok {
		return 0, fmt.Errorf("bad block position %q", pos)
	}
	n, err := strconv.Atoi(lineStr)
	if err != nil {
		return 0, fmt.Errorf("bad block position %q", pos)
	}
	return n, nil
}

// WriteCanonical writes records to path in the canonical JSON format the
// loader reads, preserving record order.
func WriteCanonical(path string, tests []TestCoverage) error {
	var b strings.Builder
	b.WriteString("{\n")
	for i, tc := range tests {
		nameJSON, err := json.Marshal(tc.Name)
		if err != nil {
			return err
		}
		covJSON, err := json.Marshal(tc.Coverage)
		if err != nil {
			return err
		}
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("  ")
		b.Write(nameJSON)
		b.WriteString(": ")
		b.Write(covJSON)
	}
	b.WriteString("\n}\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
