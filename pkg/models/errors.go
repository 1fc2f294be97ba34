package models

import "fmt"

// InvalidInputError reports malformed coverage data rejected at ingest time.
// The record is never partially ingested; the caller must fix and retry.
type InvalidInputError struct {
	Test   string
	File   string
	Line   int
	Reason string
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.File != "" && e.Line != 0:
		return fmt.Sprintf("invalid coverage for test %q: file %q line %d: %s", e.Test, e.File, e.Line, e.Reason)
	case e.File != "":
		return fmt.Sprintf("invalid coverage for test %q: file %q: %s", e.Test, e.File, e.Reason)
	default:
		return fmt.Sprintf("invalid coverage for test %q: %s", e.Test, e.Reason)
	}
}

// InvalidParameterError reports an out-of-range query parameter,
// raised before any computation starts.
type InvalidParameterError struct {
	Param  string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}
