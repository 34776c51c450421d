package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Manas2412/8Byte/pkg/models"
)

const snapshotKeyPrefix = "portfolio:"

// Compile-time check to ensure RedisSnapshotStore implements SnapshotStore
var _ SnapshotStore = (*RedisSnapshotStore)(nil)

// RedisSnapshotStore keeps one JSON document per user with a TTL. Snapshots
// are replaced wholesale; there is no partial update path.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

func (r *RedisSnapshotStore) Get(ctx context.Context, userID string) (*models.PortfolioSnapshot, error) {
	raw, err := r.client.Get(ctx, snapshotKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot read: %w", err)
	}

	var snap models.PortfolioSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// A corrupt entry is as good as a miss; the next write replaces it.
		return nil, fmt.Errorf("snapshot decode: %w", err)
	}
	return &snap, nil
}

func (r *RedisSnapshotStore) Set(ctx context.Context, snap *models.PortfolioSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot encode: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKeyPrefix+snap.UserID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	return nil
}
