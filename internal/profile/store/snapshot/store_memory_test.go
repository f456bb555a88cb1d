package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
	"praxis/pkg/requestcontext"
)

type SnapshotStoreSuite struct {
	suite.Suite
	store *MemoryStore
	base  time.Time
	ctx   context.Context
}

func (s *SnapshotStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.base)
}

func TestSnapshotStoreSuite(t *testing.T) {
	suite.Run(t, new(SnapshotStoreSuite))
}

// ctxAt returns a context whose clock reads the base time plus offset.
func (s *SnapshotStoreSuite) ctxAt(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.base.Add(offset))
}

func (s *SnapshotStoreSuite) newSnapshot() *models.RollbackSnapshot {
	return &models.RollbackSnapshot{
		OperationID:   id.NewOperationID(),
		SubjectID:     id.SubjectID(uuid.New()),
		Section:       models.SectionBio,
		PreviousValue: json.RawMessage(`{"headline":"before"}`),
		CapturedAt:    s.base,
	}
}

func (s *SnapshotStoreSuite) TestCaptureAndGet() {
	s.Run("round-trips a snapshot", func() {
		snap := s.newSnapshot()
		s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))

		got, err := s.store.Get(s.ctx, snap.OperationID)
		s.Require().NoError(err)
		s.Equal(snap.SubjectID, got.SubjectID)
		s.Equal(snap.Section, got.Section)
		s.JSONEq(string(snap.PreviousValue), string(got.PreviousValue))
	})

	s.Run("unknown operation returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, id.NewOperationID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects non-positive ttl", func() {
		s.Require().ErrorIs(s.store.Capture(s.ctx, s.newSnapshot(), 0), sentinel.ErrInvalidState)
		s.Require().ErrorIs(s.store.Capture(s.ctx, s.newSnapshot(), -time.Minute), sentinel.ErrInvalidState)
	})

	s.Run("returned snapshot is a copy", func() {
		snap := s.newSnapshot()
		s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))

		got, err := s.store.Get(s.ctx, snap.OperationID)
		s.Require().NoError(err)
		got.PreviousValue[2] = 'X'

		again, err := s.store.Get(s.ctx, snap.OperationID)
		s.Require().NoError(err)
		s.JSONEq(`{"headline":"before"}`, string(again.PreviousValue))
	})
}

func (s *SnapshotStoreSuite) TestExpiry() {
	s.Run("snapshot is gone after its ttl", func() {
		snap := s.newSnapshot()
		s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))

		// Still there just before expiry.
		_, err := s.store.Get(s.ctxAt(59*time.Minute), snap.OperationID)
		s.Require().NoError(err)

		_, err = s.store.Get(s.ctxAt(61*time.Minute), snap.OperationID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("expiry is per snapshot", func() {
		short := s.newSnapshot()
		long := s.newSnapshot()
		s.Require().NoError(s.store.Capture(s.ctx, short, 10*time.Minute))
		s.Require().NoError(s.store.Capture(s.ctx, long, 2*time.Hour))

		later := s.ctxAt(30 * time.Minute)
		_, err := s.store.Get(later, short.OperationID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Get(later, long.OperationID)
		s.Require().NoError(err)
	})

	s.Run("size counts only live snapshots", func() {
		store := NewMemoryStore()
		s.Require().NoError(store.Capture(s.ctx, s.newSnapshot(), 10*time.Minute))
		s.Require().NoError(store.Capture(s.ctx, s.newSnapshot(), 2*time.Hour))

		size, err := store.Size(s.ctxAt(30 * time.Minute))
		s.Require().NoError(err)
		s.Equal(1, size)
	})

	s.Run("cleanup drops expired entries", func() {
		store := NewMemoryStore()
		s.Require().NoError(store.Capture(s.ctx, s.newSnapshot(), 10*time.Minute))
		s.Require().NoError(store.Capture(s.ctx, s.newSnapshot(), 20*time.Minute))
		s.Require().NoError(store.Capture(s.ctx, s.newSnapshot(), 2*time.Hour))

		deleted := store.DeleteExpiredAt(context.Background(), s.base.Add(time.Hour))
		s.Equal(2, deleted)

		size, err := store.Size(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, size)
	})
}

func (s *SnapshotStoreSuite) TestDelete() {
	snap := s.newSnapshot()
	s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))
	s.Require().NoError(s.store.Delete(s.ctx, snap.OperationID))

	_, err := s.store.Get(s.ctx, snap.OperationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Deleting a missing snapshot is a no-op.
	s.Require().NoError(s.store.Delete(s.ctx, snap.OperationID))
}
