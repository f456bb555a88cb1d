// Package audit is the append-only change trail for profile updates. Every
// accepted update produces one entry, correlated by operation ID with the
// rollback snapshot and the sync queue; the entry's sync state evolves as the
// operation moves through propagation. Rollbacks and terminal sync failures
// append their own entries so the forensic sequence survives in order.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
)

// Kind distinguishes why an entry exists.
type Kind string

const (
	// KindUpdate records an accepted profile change. One per operation;
	// carries the live sync state.
	KindUpdate Kind = "update"

	// KindRollback records a compensating restore of a previous value.
	KindRollback Kind = "rollback"

	// KindSyncFailure marks the moment an operation exhausted its retry
	// budget. The update entry flips to failed at the same time; this
	// entry preserves when and why as its own row.
	KindSyncFailure Kind = "sync_failure"
)

// ClientInfo captures where an update came from, for actor forensics.
type ClientInfo struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AttemptRecord is one failed propagation attempt.
type AttemptRecord struct {
	Attempt       int             `json:"attempt"`
	FailedSystems []models.System `json:"failed_systems"`
	Error         string          `json:"error,omitempty"`
	At            time.Time       `json:"at"`
}

// Entry is one row of the change trail.
//
// Invariants:
//   - OperationID correlates the entry with its snapshot and sync operation
//   - OldValue is the authoritative value before the change (null on first
//     write of a section), NewValue the value after; for rollbacks both hold
//     the restored value
//   - SyncStatus/RetryCount/LastError/Attempts evolve only on KindUpdate
//     entries and only until the status is terminal
type Entry struct {
	ID            string                      `json:"id"`
	OperationID   id.OperationID              `json:"operation_id"`
	SubjectID     id.SubjectID                `json:"subject_id"`
	Section       models.Section              `json:"section"`
	Kind          Kind                        `json:"kind"`
	ActorID       id.ActorID                  `json:"actor_id"`
	OldValue      json.RawMessage             `json:"old_value,omitempty"`
	NewValue      json.RawMessage             `json:"new_value,omitempty"`
	Impact        models.Impact               `json:"impact"`
	SyncStatus    models.SyncStatus           `json:"sync_status"`
	RetryCount    int                         `json:"retry_count"`
	LastError     string                      `json:"last_error,omitempty"`
	Attempts      []AttemptRecord             `json:"attempts,omitempty"`
	Notifications []models.NotificationRecord `json:"notifications,omitempty"`
	Client        ClientInfo                  `json:"client,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// SyncUpdate mutates the sync-facing fields of an update entry. Attempt, when
// set, is appended to the entry's attempt history.
type SyncUpdate struct {
	Status     models.SyncStatus
	RetryCount int
	LastError  string
	Attempt    *AttemptRecord
}

// Store persists the change trail.
//
// List methods return entries newest first, except ListUnfinished which is
// oldest first for recovery. Get, UpdateSyncState and AttachNotifications
// address the KindUpdate entry for the operation.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	Get(ctx context.Context, operationID id.OperationID) (*Entry, error)
	UpdateSyncState(ctx context.Context, operationID id.OperationID, update SyncUpdate) error
	AttachNotifications(ctx context.Context, operationID id.OperationID, records []models.NotificationRecord) error
	ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]Entry, error)
	ListBySubjectSection(ctx context.Context, subjectID id.SubjectID, section models.Section, limit int) ([]Entry, error)
	ListUnfinished(ctx context.Context) ([]Entry, error)
}
