package domain

import "context"

// ComputeFunc is the computation body of a cell. Inputs are resolved by name
// from value cells and from the cached outputs of upstream cells. The returned
// map must contain every output the cell declared.
//
// Compute functions must be deterministic for fixed inputs; anything
// pseudorandom has to run from a fixed, caller-supplied seed.
type ComputeFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// CellSpec declares a computation cell: its identity, the named inputs it
// reads, the named outputs it produces, and the function that produces them.
// Specs are immutable once registered with a builder.
type CellSpec struct {
	Name    string
	Inputs  []string
	Outputs []string
	Compute ComputeFunc
}

// ValueSpec declares a value cell: a mutable leaf input driven by external
// events (sliders, API calls). Its name doubles as the output name cells
// reference.
type ValueSpec struct {
	Name    string
	Initial any
}
