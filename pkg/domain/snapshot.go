package domain

import "time"

// CellSnapshot is a read-only view of one cell's latest execution result.
type CellSnapshot struct {
	Cell       string         `json:"cell"`
	State      CellState      `json:"state"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	Error      string         `json:"error,omitempty"`
	ComputedAt *time.Time     `json:"computed_at,omitempty"`
}

// GraphSnapshot is a read-only view of the whole graph: every cell's latest
// result plus the current value-cell values. Version increments once per
// completed evaluation pass.
type GraphSnapshot struct {
	SessionID string                  `json:"session_id"`
	Version   uint64                  `json:"version"`
	Values    map[string]any          `json:"values"`
	Cells     map[string]CellSnapshot `json:"cells"`
	TakenAt   time.Time               `json:"taken_at"`
}
