// Package snapshot retains pre-update section values within the rollback
// window, keyed by operation.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
	"praxis/pkg/requestcontext"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

type entry struct {
	snap      *models.RollbackSnapshot
	expiresAt time.Time
}

// MemoryStore keeps rollback snapshots in memory for tests/dev. Expired
// entries are dropped lazily on read and in bulk by the cleanup loop.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[id.OperationID]entry
}

// NewMemoryStore constructs an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[id.OperationID]entry)}
}

func (s *MemoryStore) Capture(ctx context.Context, snap *models.RollbackSnapshot, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[snap.OperationID] = entry{snap: snap.Clone(), expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, operationID id.OperationID) (*models.RollbackSnapshot, error) {
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	e, ok := s.entries[operationID]
	s.mu.RUnlock()
	if !ok || !e.expiresAt.After(now) {
		return nil, fmt.Errorf("snapshot for operation %s not found: %w", operationID, sentinel.ErrNotFound)
	}
	return e.snap.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, operationID id.OperationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, operationID)
	return nil
}

func (s *MemoryStore) Size(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.entries {
		if e.expiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

// StartCleanup evicts expired snapshots on a fixed interval until ctx is
// cancelled.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.DeleteExpiredAt(ctx, time.Now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DeleteExpiredAt removes all snapshots expired as of the given time.
// Exported for testability; background cleanup passes wall-clock time.
func (s *MemoryStore) DeleteExpiredAt(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for opID, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, opID)
			deleted++
		}
	}
	return deleted
}
