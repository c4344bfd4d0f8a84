// Package graph implements graph construction and validation for the
// reactive evaluator.
//
// The builder accepts cell declarations in any order, rejects duplicate
// outputs immediately, and at Finalize resolves every input to a producing
// cell or value cell, rejects cycles, and fixes a deterministic topological
// order. The resulting Graph is immutable.
package graph
