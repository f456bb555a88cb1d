package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

// PostgresStore persists authoritative profiles in PostgreSQL, one row per
// subject/section pair with the value as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateProfile(ctx context.Context, subjectID id.SubjectID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (subject_id) VALUES ($1)`,
		subjectID.String(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("profile %s already exists: %w", subjectID, sentinel.ErrConflict)
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReadSection(ctx context.Context, subjectID id.SubjectID, section models.Section) (json.RawMessage, error) {
	if err := s.requireProfile(ctx, subjectID); err != nil {
		return nil, err
	}

	var value json.RawMessage
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM profile_sections WHERE subject_id = $1 AND section = $2`,
		subjectID.String(), section.String(),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		// Subject exists, section was never written.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read section: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) WriteSection(ctx context.Context, subjectID id.SubjectID, section models.Section, value json.RawMessage, now time.Time) error {
	if err := s.requireProfile(ctx, subjectID); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profile_sections (subject_id, section, value, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (subject_id, section)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		subjectID.String(), section.String(), []byte(value), now,
	)
	if err != nil {
		return fmt.Errorf("failed to write section: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSections(ctx context.Context, subjectID id.SubjectID) (map[models.Section]json.RawMessage, error) {
	if err := s.requireProfile(ctx, subjectID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT section, value FROM profile_sections WHERE subject_id = $1`,
		subjectID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	sections := make(map[models.Section]json.RawMessage)
	for rows.Next() {
		var (
			section string
			value   json.RawMessage
		)
		if scanErr := rows.Scan(&section, &value); scanErr != nil {
			return nil, fmt.Errorf("failed to scan section: %w", scanErr)
		}
		sections[models.Section(section)] = value
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate sections: %w", rowsErr)
	}
	return sections, nil
}

func (s *PostgresStore) requireProfile(ctx context.Context, subjectID id.SubjectID) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE subject_id = $1)`,
		subjectID.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check profile: %w", err)
	}
	if !exists {
		return fmt.Errorf("profile %s not found: %w", subjectID, sentinel.ErrNotFound)
	}
	return nil
}
