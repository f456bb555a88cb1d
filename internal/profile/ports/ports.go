// Package ports defines shared interfaces for the profile module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
)

// ProfileStore is the authoritative record. Writes here are what callers
// observe immediately; downstream systems catch up asynchronously.
type ProfileStore interface {
	// CreateProfile registers a subject so sections can be written against it.
	// Returns sentinel.ErrConflict if the subject already exists.
	CreateProfile(ctx context.Context, subjectID id.SubjectID) error

	// ReadSection returns the current value of one section. Returns
	// sentinel.ErrNotFound when the subject does not exist; a nil value with
	// a nil error means the subject exists but the section was never set.
	ReadSection(ctx context.Context, subjectID id.SubjectID, section models.Section) (json.RawMessage, error)

	// WriteSection upserts the section value, last writer wins.
	// Returns sentinel.ErrNotFound when the subject does not exist.
	WriteSection(ctx context.Context, subjectID id.SubjectID, section models.Section, value json.RawMessage, now time.Time) error

	// ListSections returns every populated section for a subject.
	ListSections(ctx context.Context, subjectID id.SubjectID) (map[models.Section]json.RawMessage, error)
}

// SnapshotStore holds pre-update section values so an applied change can be
// undone. Entries expire on their own timer regardless of how the operation
// ends.
type SnapshotStore interface {
	// Capture stores a snapshot with a time-to-live.
	Capture(ctx context.Context, snap *models.RollbackSnapshot, ttl time.Duration) error

	// Get returns the snapshot for an operation, or sentinel.ErrNotFound if
	// it was never captured or has already been evicted.
	Get(ctx context.Context, operationID id.OperationID) (*models.RollbackSnapshot, error)

	// Delete removes a snapshot once a rollback has consumed it.
	Delete(ctx context.Context, operationID id.OperationID) error

	// Size reports how many snapshots are currently retained.
	Size(ctx context.Context) (int, error)
}

// OperationRegistry tracks sync operations through their lifecycle. The
// registry is the live view; the audit trail is the durable one.
type OperationRegistry interface {
	// Save registers a freshly queued operation.
	// Returns sentinel.ErrConflict if the operation ID is already registered.
	Save(ctx context.Context, op *models.SyncOperation) error

	// Get returns a copy of one operation.
	Get(ctx context.Context, operationID id.OperationID) (*models.SyncOperation, error)

	// Update replaces the stored record with the given copy. Whole-record
	// replacement keeps per-system statuses consistent with the
	// status/retry/error fields written in the same attempt.
	Update(ctx context.Context, op *models.SyncOperation) error

	// ListActive returns queued and processing operations, oldest first.
	ListActive(ctx context.Context) ([]*models.SyncOperation, error)

	// Stats reports live per-status counts and cumulative terminal counters.
	Stats(ctx context.Context) (models.SyncStats, error)

	// DeleteTerminalBefore drops completed/failed operations that finished
	// before the cutoff, bounding registry memory. Returns how many were
	// dropped.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Synchronizer applies one section's new state to one downstream system.
// Apply must be idempotent: retries re-invoke every affected system,
// including ones that already succeeded in an earlier attempt.
type Synchronizer interface {
	// System identifies the downstream consumer this adapter serves.
	System() models.System

	// Apply propagates the section change to the downstream system.
	Apply(ctx context.Context, change models.SectionChange) error
}

// Notifier tells affected stakeholders about an applied high-impact change.
// Implementations are best-effort: delivery failures are recorded, never
// returned as errors, and never influence sync outcomes.
type Notifier interface {
	// NotifyProfileChanged resolves stakeholders and dispatches over every
	// channel the impact warrants, returning one record per recipient and
	// channel attempted.
	NotifyProfileChanged(ctx context.Context, op *models.SyncOperation) []models.NotificationRecord
}
