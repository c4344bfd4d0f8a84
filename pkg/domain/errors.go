package domain

import (
	"fmt"
	"strings"
)

// DuplicateOutputError reports two cells declaring the same output name.
// Construction-time, fatal to graph build.
type DuplicateOutputError struct {
	Output   string
	Cell     string
	Existing string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("output %q declared by cell %q is already produced by %q", e.Output, e.Cell, e.Existing)
}

// UnknownInputError reports an input name never produced by any registered
// cell or declared value cell. Construction-time, fatal to graph build.
type UnknownInputError struct {
	Cell  string
	Input string
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("cell %q reads input %q which no cell or value produces", e.Cell, e.Input)
}

// CyclicDependencyError reports a dependency cycle. Construction-time, fatal
// to graph build.
type CyclicDependencyError struct {
	Cells []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle involving cells: %s", strings.Join(e.Cells, ", "))
}

// ComputeError wraps a failure raised by a cell's compute function during
// evaluation. It is contained to the failing cell and its downstream
// dependents; unrelated branches keep evaluating.
type ComputeError struct {
	Cell string
	Err  error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("cell %q: %v", e.Cell, e.Err)
}

func (e *ComputeError) Unwrap() error { return e.Err }
