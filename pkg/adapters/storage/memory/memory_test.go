package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/cellflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(sessionID string, version uint64) domain.GraphSnapshot {
	return domain.GraphSnapshot{
		SessionID: sessionID,
		Version:   version,
		Values:    map[string]any{"n": 500, "sigma": 1.0},
		Cells: map[string]domain.CellSnapshot{
			"data": {
				Cell:    "data",
				State:   domain.CellStateFresh,
				Outputs: map[string]any{"df": "dataset"},
			},
		},
		TakenAt: time.Now(),
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", testSnapshot("session-1", 1)))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", loaded.SessionID)
	assert.Equal(t, uint64(1), loaded.Version)
	assert.Equal(t, 500, loaded.Values["n"])
	assert.Equal(t, domain.CellStateFresh, loaded.Cells["data"].State)
}

func TestSaveReplacesPrior(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", testSnapshot("session-1", 1)))
	require.NoError(t, store.Save(ctx, "session-1", testSnapshot("session-1", 2)))

	loaded, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.Version)
}

func TestLoadIsolatedFromCallerMutation(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := testSnapshot("session-1", 1)
	require.NoError(t, store.Save(ctx, "session-1", snap))

	// Mutating what the caller handed in or got back must not leak into
	// stored history.
	snap.Values["n"] = 9999
	first, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	first.Values["n"] = -1
	first.Cells["data"].Outputs["df"] = "tampered"

	second, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 500, second.Values["n"])
	assert.Equal(t, "dataset", second.Cells["data"].Outputs["df"])
}

func TestLoadMissing(t *testing.T) {
	store := NewSnapshotStore()

	_, err := store.Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestDeleteAndExists(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "session-1", testSnapshot("session-1", 1)))

	exists, err = store.Exists(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "session-1"))

	exists, err = store.Exists(ctx, "session-1")
	require.NoError(t, err)
	assert.False(t, exists)
}
