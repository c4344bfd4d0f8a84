package domain

// CellState is the recompute state of a cell.
//
// Transitions: Stale -> Computing -> {Fresh, Errored}. Fresh and Errored go
// back to Stale only when an upstream value or input changes. All cells start
// Stale at graph construction.
type CellState string

const (
	CellStateStale     CellState = "stale"
	CellStateComputing CellState = "computing"
	CellStateFresh     CellState = "fresh"
	CellStateErrored   CellState = "errored"
)
