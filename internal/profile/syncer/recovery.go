package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"praxis/internal/audit"
	"praxis/internal/profile/classify"
	"praxis/internal/profile/models"
	"praxis/internal/profile/ports"
	"praxis/pkg/platform/sentinel"
)

// Recovery rebuilds worker state after a restart. The registry and queue are
// in-memory; the audit trail is the durable record of what was still in
// flight when the previous process died.
type Recovery struct {
	trail    audit.Store
	registry ports.OperationRegistry
	queue    *Queue
	logger   *slog.Logger
}

func NewRecovery(trail audit.Store, registry ports.OperationRegistry, queue *Queue, logger *slog.Logger) *Recovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recovery{trail: trail, registry: registry, queue: queue, logger: logger}
}

// Reseed re-enqueues every unfinished operation found in the audit trail, in
// acceptance order. Classification is re-derived from the section: the rules
// are code, so a restart propagates to whatever the current table says.
// Returns how many operations were restored.
func (r *Recovery) Reseed(ctx context.Context) (int, error) {
	entries, err := r.trail.ListUnfinished(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unfinished audit entries: %w", err)
	}

	restored := 0
	for i := range entries {
		e := &entries[i]

		c, err := classify.Classify(e.Section)
		if err != nil {
			// The section left the classification table since the entry was
			// written; there is nothing to propagate to anymore.
			r.logger.WarnContext(ctx, "skipping unfinished operation for unclassifiable section",
				"operation_id", e.OperationID,
				"section", e.Section,
			)
			continue
		}

		op := models.NewSyncOperation(e.OperationID, e.SubjectID, e.Section, e.NewValue, c, e.CreatedAt)
		op.RetryCount = e.RetryCount
		op.LastError = e.LastError
		op.Notified = len(e.Notifications) > 0

		if err := r.registry.Save(ctx, op); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Already tracked; this was not a cold start.
				continue
			}
			r.logger.ErrorContext(ctx, "failed to restore operation",
				"operation_id", e.OperationID,
				"error", err,
			)
			continue
		}

		if e.SyncStatus == models.SyncProcessing {
			// The previous process died mid-attempt.
			if err := r.trail.UpdateSyncState(ctx, e.OperationID, audit.SyncUpdate{
				Status:     models.SyncQueued,
				RetryCount: e.RetryCount,
				LastError:  e.LastError,
			}); err != nil {
				r.logger.WarnContext(ctx, "failed to reset audit sync state",
					"operation_id", e.OperationID,
					"error", err,
				)
			}
		}

		r.queue.Enqueue(op)
		restored++
	}

	if restored > 0 {
		r.logger.InfoContext(ctx, "recovery reseeded unfinished operations", "count", restored)
	}
	return restored, nil
}
