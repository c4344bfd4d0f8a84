package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/cellflow/pkg/domain"
)

// SnapshotStore implements ports.SnapshotStore with an in-memory map.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.GraphSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]domain.GraphSnapshot),
	}
}

// Save stores the latest snapshot for a session, replacing any prior one.
func (s *SnapshotStore) Save(ctx context.Context, sessionID string, snap domain.GraphSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[sessionID] = copySnapshot(snap)
	return nil
}

// Load retrieves the latest snapshot for a session.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*domain.GraphSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, fmt.Errorf("snapshot not found: %s", sessionID)
	}
	copied := copySnapshot(snap)
	return &copied, nil
}

// Delete removes a session's snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, sessionID)
	return nil
}

// Exists checks whether a session has a stored snapshot.
func (s *SnapshotStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.snapshots[sessionID]
	return ok, nil
}

// copySnapshot detaches the stored maps from the caller's so later engine
// passes cannot mutate stored history.
func copySnapshot(snap domain.GraphSnapshot) domain.GraphSnapshot {
	out := snap
	out.Values = make(map[string]any, len(snap.Values))
	for k, v := range snap.Values {
		out.Values[k] = v
	}
	out.Cells = make(map[string]domain.CellSnapshot, len(snap.Cells))
	for name, cell := range snap.Cells {
		copied := cell
		if cell.Outputs != nil {
			copied.Outputs = make(map[string]any, len(cell.Outputs))
			for k, v := range cell.Outputs {
				copied.Outputs[k] = v
			}
		}
		out.Cells[name] = copied
	}
	return out
}
