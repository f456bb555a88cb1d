// Package operation is the live registry of sync operations. It answers
// "what is in flight right now" for stats and admin introspection; the audit
// trail, not this registry, is the durable record.
package operation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

// MemoryRegistry tracks operations in memory. Terminal operations linger for
// a retention window so recent outcomes stay inspectable, then get dropped.
type MemoryRegistry struct {
	mu  sync.RWMutex
	ops map[id.OperationID]*models.SyncOperation

	// Cumulative counters survive the eviction of the operations they
	// counted.
	completedTotal uint64
	failedTotal    uint64
	retriesTotal   uint64
}

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{ops: make(map[id.OperationID]*models.SyncOperation)}
}

func (r *MemoryRegistry) Save(_ context.Context, op *models.SyncOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[op.OperationID]; ok {
		return fmt.Errorf("operation %s already registered: %w", op.OperationID, sentinel.ErrConflict)
	}
	r.ops[op.OperationID] = op.Clone()
	return nil
}

func (r *MemoryRegistry) Get(_ context.Context, operationID id.OperationID) (*models.SyncOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[operationID]
	if !ok {
		return nil, fmt.Errorf("operation %s not found: %w", operationID, sentinel.ErrNotFound)
	}
	return op.Clone(), nil
}

func (r *MemoryRegistry) Update(_ context.Context, op *models.SyncOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.ops[op.OperationID]
	if !ok {
		return fmt.Errorf("operation %s not found: %w", op.OperationID, sentinel.ErrNotFound)
	}

	if !existing.Status.IsTerminal() && op.Status.IsTerminal() {
		if op.Status == models.SyncCompleted {
			r.completedTotal++
		} else {
			r.failedTotal++
		}
	}
	if op.RetryCount > existing.RetryCount {
		r.retriesTotal += uint64(op.RetryCount - existing.RetryCount)
	}

	r.ops[op.OperationID] = op.Clone()
	return nil
}

func (r *MemoryRegistry) ListActive(_ context.Context) ([]*models.SyncOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []*models.SyncOperation
	for _, op := range r.ops {
		if !op.Status.IsTerminal() {
			active = append(active, op.Clone())
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].QueuedAt.Before(active[j].QueuedAt)
	})
	return active, nil
}

func (r *MemoryRegistry) Stats(_ context.Context) (models.SyncStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := models.SyncStats{
		Completed: r.completedTotal,
		Failed:    r.failedTotal,
		Retries:   r.retriesTotal,
	}
	for _, op := range r.ops {
		switch op.Status {
		case models.SyncQueued:
			stats.Queued++
		case models.SyncProcessing:
			stats.Processing++
		}
	}
	return stats, nil
}

func (r *MemoryRegistry) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for opID, op := range r.ops {
		if op.Status.IsTerminal() && !op.FinishedAt.IsZero() && op.FinishedAt.Before(cutoff) {
			delete(r.ops, opID)
			deleted++
		}
	}
	return deleted, nil
}

// StartCleanup drops terminal operations older than retention, on a fixed
// interval, until ctx is cancelled.
func (r *MemoryRegistry) StartCleanup(ctx context.Context, interval, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.DeleteTerminalBefore(ctx, time.Now().Add(-retention)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
