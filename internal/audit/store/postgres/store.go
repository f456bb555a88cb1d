package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"praxis/internal/audit"
	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

// Store persists the change trail in PostgreSQL. Value payloads, attempt
// history and notification records live in JSONB columns; sync-state updates
// append to the JSONB arrays in place so the row stays the single record of
// the operation.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL-backed audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `
	id, operation_id, subject_id, section, kind, actor_id,
	old_value, new_value, impact, sync_status, retry_count, last_error,
	attempts, notifications, client_ip, user_agent, created_at, updated_at`

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	attempts, err := json.Marshal(emptyIfNilAttempts(entry.Attempts))
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	notifications, err := json.Marshal(emptyIfNilRecords(entry.Notifications))
	if err != nil {
		return fmt.Errorf("marshal notifications: %w", err)
	}

	query := `
		INSERT INTO audit_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17, $18)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.OperationID.String(),
		entry.SubjectID.String(),
		entry.Section.String(),
		string(entry.Kind),
		entry.ActorID.String(),
		nullableJSON(entry.OldValue),
		nullableJSON(entry.NewValue),
		entry.Impact.String(),
		entry.SyncStatus.String(),
		entry.RetryCount,
		entry.LastError,
		attempts,
		notifications,
		entry.Client.IP,
		entry.Client.UserAgent,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, operationID id.OperationID) (*audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE operation_id = $1 AND kind = 'update'
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, operationID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get audit entry: %w", err)
	}
	return entry, nil
}

func (s *Store) UpdateSyncState(ctx context.Context, operationID id.OperationID, update audit.SyncUpdate) error {
	var attempt []byte
	if update.Attempt != nil {
		b, err := json.Marshal([]audit.AttemptRecord{*update.Attempt})
		if err != nil {
			return fmt.Errorf("marshal attempt: %w", err)
		}
		attempt = b
	}

	query := `
		UPDATE audit_entries
		SET sync_status = $2,
		    retry_count = $3,
		    last_error = NULLIF($4, ''),
		    attempts = attempts || COALESCE($5::jsonb, '[]'::jsonb),
		    updated_at = $6
		WHERE operation_id = $1 AND kind = 'update'
	`
	res, err := s.db.ExecContext(ctx, query,
		operationID.String(),
		update.Status.String(),
		update.RetryCount,
		update.LastError,
		attempt,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	return requireRow(res)
}

func (s *Store) AttachNotifications(ctx context.Context, operationID id.OperationID, records []models.NotificationRecord) error {
	if len(records) == 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal notification records: %w", err)
	}

	query := `
		UPDATE audit_entries
		SET notifications = notifications || $2::jsonb,
		    updated_at = $3
		WHERE operation_id = $1 AND kind = 'update'
	`
	res, err := s.db.ExecContext(ctx, query, operationID.String(), payload, time.Now())
	if err != nil {
		return fmt.Errorf("attach notifications: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ListBySubject(ctx context.Context, subjectID id.SubjectID, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE subject_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0)
	`
	return s.list(ctx, query, subjectID.String(), limit)
}

func (s *Store) ListBySubjectSection(ctx context.Context, subjectID id.SubjectID, section models.Section, limit int) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE subject_id = $1 AND section = $2
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($3, 0)
	`
	return s.list(ctx, query, subjectID.String(), section.String(), limit)
}

func (s *Store) ListUnfinished(ctx context.Context) ([]audit.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM audit_entries
		WHERE kind = 'update' AND sync_status IN ('queued', 'processing')
		ORDER BY created_at ASC
	`
	return s.list(ctx, query)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var (
		entry                   audit.Entry
		operationID, subjectID  string
		section, kind, actorID  string
		impact, syncStatus      string
		lastError               sql.NullString
		clientIP, userAgent     sql.NullString
		oldValue, newValue      []byte
		attempts, notifications []byte
	)

	if err := row.Scan(
		&entry.ID, &operationID, &subjectID, &section, &kind, &actorID,
		&oldValue, &newValue, &impact, &syncStatus, &entry.RetryCount, &lastError,
		&attempts, &notifications, &clientIP, &userAgent, &entry.CreatedAt, &entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	opID, err := id.ParseOperationID(operationID)
	if err != nil {
		return nil, fmt.Errorf("corrupt operation_id %q: %w", operationID, err)
	}
	subID, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return nil, fmt.Errorf("corrupt subject_id %q: %w", subjectID, err)
	}
	// Not ParseActorID: system entries such as sync failures carry the nil
	// actor, and Parse rejects it.
	actUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, fmt.Errorf("corrupt actor_id %q: %w", actorID, err)
	}

	entry.OperationID = opID
	entry.SubjectID = subID
	entry.ActorID = id.ActorID(actUUID)
	entry.Section = models.Section(section)
	entry.Kind = audit.Kind(kind)
	entry.Impact = models.Impact(impact)
	entry.SyncStatus = models.SyncStatus(syncStatus)
	entry.LastError = lastError.String
	entry.Client = audit.ClientInfo{IP: clientIP.String, UserAgent: userAgent.String}
	entry.OldValue = json.RawMessage(oldValue)
	entry.NewValue = json.RawMessage(newValue)

	if len(attempts) > 0 {
		if err := json.Unmarshal(attempts, &entry.Attempts); err != nil {
			return nil, fmt.Errorf("unmarshal attempts: %w", err)
		}
	}
	if len(notifications) > 0 {
		if err := json.Unmarshal(notifications, &entry.Notifications); err != nil {
			return nil, fmt.Errorf("unmarshal notifications: %w", err)
		}
	}
	if len(entry.Attempts) == 0 {
		entry.Attempts = nil
	}
	if len(entry.Notifications) == 0 {
		entry.Notifications = nil
	}
	return &entry, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func emptyIfNilAttempts(a []audit.AttemptRecord) []audit.AttemptRecord {
	if a == nil {
		return []audit.AttemptRecord{}
	}
	return a
}

func emptyIfNilRecords(r []models.NotificationRecord) []models.NotificationRecord {
	if r == nil {
		return []models.NotificationRecord{}
	}
	return r
}
