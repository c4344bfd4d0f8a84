package engine

import (
	"fmt"
	"time"

	"github.com/aescanero/cellflow/pkg/domain"
)

// Snapshot returns a read-only view of the whole graph. It never triggers
// recomputation.
func (e *Engine) Snapshot() domain.GraphSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// CellSnapshot returns the latest execution result of one cell.
func (e *Engine) CellSnapshot(name string) (domain.CellSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.graph.Cell(name); !ok {
		return domain.CellSnapshot{}, false
	}
	return e.cellSnapshotLocked(name), true
}

// Output reads one named output: the current value for value cells, the
// producing cell's latest cached value otherwise. For Errored producers the
// triggering error is returned instead of a value; Stale means not yet
// computed, or for a value cell, mutated since the last pass.
func (e *Engine) Output(name string) (any, domain.CellState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph.IsValue(name) {
		state := domain.CellStateFresh
		if _, dirty := e.pending[name]; dirty {
			state = domain.CellStateStale
		}
		return e.values[name], state, nil
	}

	producer, ok := e.graph.Producer(name)
	if !ok {
		return nil, "", fmt.Errorf("unknown output: %q", name)
	}

	state := e.states[producer]
	if state == domain.CellStateErrored {
		return nil, state, e.errs[producer]
	}
	if cached, ok := e.outputs[producer]; ok {
		return cached[name], state, nil
	}
	return nil, state, nil
}

// Values returns a copy of the current value-cell values.
func (e *Engine) Values() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

func (e *Engine) snapshotLocked() domain.GraphSnapshot {
	values := make(map[string]any, len(e.values))
	for k, v := range e.values {
		values[k] = v
	}

	cells := make(map[string]domain.CellSnapshot, len(e.states))
	for name := range e.states {
		cells[name] = e.cellSnapshotLocked(name)
	}

	return domain.GraphSnapshot{
		SessionID: e.sessionID,
		Version:   e.version,
		Values:    values,
		Cells:     cells,
		TakenAt:   time.Now(),
	}
}

func (e *Engine) cellSnapshotLocked(name string) domain.CellSnapshot {
	snap := domain.CellSnapshot{
		Cell:  name,
		State: e.states[name],
	}
	if outputs, ok := e.outputs[name]; ok {
		copied := make(map[string]any, len(outputs))
		for k, v := range outputs {
			copied[k] = v
		}
		snap.Outputs = copied
	}
	if cerr, ok := e.errs[name]; ok {
		snap.Error = cerr.Error()
	}
	if at, ok := e.computedAt[name]; ok {
		t := at
		snap.ComputedAt = &t
	}
	return snap
}
