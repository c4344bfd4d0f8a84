package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aescanero/cellflow/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotStore implements ports.SnapshotStore using Redis with JSON
// serialization and a TTL, so out-of-process readers can follow a live
// session without holding the engine.
type SnapshotStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewSnapshotStore creates a new Redis snapshot store.
func NewSnapshotStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save stores the latest snapshot for a session, refreshing the TTL.
func (s *SnapshotStore) Save(ctx context.Context, sessionID string, snap domain.GraphSnapshot) error {
	key := getSnapshotKey(sessionID)

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	s.logger.Debug("snapshot saved",
		zap.String("session_id", sessionID),
		zap.Uint64("version", snap.Version))

	return nil
}

// Load retrieves the latest snapshot for a session.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*domain.GraphSnapshot, error) {
	key := getSnapshotKey(sessionID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("snapshot not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.GraphSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Delete removes a session's snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	key := getSnapshotKey(sessionID)

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	s.logger.Debug("snapshot deleted",
		zap.String("session_id", sessionID))

	return nil
}

// Exists checks whether a session has a stored snapshot.
func (s *SnapshotStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	key := getSnapshotKey(sessionID)

	result, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return result > 0, nil
}

// getSnapshotKey returns the Redis key for a session snapshot.
func getSnapshotKey(sessionID string) string {
	return fmt.Sprintf("cellflow:snapshot:%s", sessionID)
}
