package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"praxis/internal/profile/models"
)

const (
	// Redis key prefix for cached profiles, one hash per subject
	profileKeyPrefix = "profile:"
)

// CacheAdapter mirrors accepted section values into Redis so read-heavy
// surfaces can serve profiles without touching the authoritative store.
type CacheAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheAdapter constructs the Redis cache synchronizer. A non-positive
// ttl keeps cached profiles until the next write.
func NewCacheAdapter(client *redis.Client, ttl time.Duration) *CacheAdapter {
	return &CacheAdapter{client: client, ttl: ttl}
}

func (a *CacheAdapter) System() models.System {
	return models.SystemCache
}

// Apply writes the section into the subject's hash. HSET is idempotent per
// field, so retried applications converge.
func (a *CacheAdapter) Apply(ctx context.Context, change models.SectionChange) error {
	key := profileKeyPrefix + change.SubjectID.String()

	pipe := a.client.Pipeline()
	pipe.HSet(ctx, key, change.Section.String(), []byte(change.Value))
	if a.ttl > 0 {
		pipe.Expire(ctx, key, a.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache update failed: %w", err)
	}
	return nil
}
