package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

const (
	// Redis key prefix for rollback snapshots
	snapshotKeyPrefix = "rollback:op:"
)

// RedisStore is a Redis-backed snapshot store. This is the production
// implementation for deployments where rollback availability must survive a
// process restart; eviction is delegated to per-key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Capture(ctx context.Context, snap *models.RollbackSnapshot, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	key := snapshotKeyPrefix + snap.OperationID.String()
	return s.client.Set(ctx, key, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, operationID id.OperationID) (*models.RollbackSnapshot, error) {
	key := snapshotKeyPrefix + operationID.String()
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("snapshot for operation %s not found: %w", operationID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap models.RollbackSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Delete(ctx context.Context, operationID id.OperationID) error {
	key := snapshotKeyPrefix + operationID.String()
	return s.client.Del(ctx, key).Err()
}

// Size counts retained snapshots with a cursor scan so large keyspaces never
// block the server.
func (s *RedisStore) Size(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, snapshotKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to scan snapshots: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}
