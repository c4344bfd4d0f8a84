// Package engine implements change propagation for the reactive graph.
//
// The engine coordinates recomputation by:
//   - coalescing value-cell mutations into one pending set
//   - walking the affected closure in topological order, once per cell
//   - containing compute failures to the failing branch
//   - publishing lifecycle events to the event bus
//   - persisting the latest snapshot to the snapshot store
//
// At most one evaluation pass runs at a time; mutations arriving mid-pass
// are picked up by the next pass.
package engine
