//go:build integration

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
	"praxis/pkg/testutil/containers"
)

type RedisSnapshotSuite struct {
	suite.Suite
	store *RedisStore
	ctx   context.Context
}

func TestRedisSnapshotSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	s := &RedisSnapshotSuite{store: NewRedisStore(rc.Client), ctx: context.Background()}
	suite.Run(t, s)
}

func (s *RedisSnapshotSuite) SetupTest() {
	rc := containers.GetManager().GetRedis(s.T())
	s.Require().NoError(rc.Client.FlushAll(s.ctx).Err())
}

func (s *RedisSnapshotSuite) newSnapshot() *models.RollbackSnapshot {
	return &models.RollbackSnapshot{
		OperationID:   id.NewOperationID(),
		SubjectID:     id.SubjectID(uuid.New()),
		Section:       models.SectionCredentials,
		PreviousValue: json.RawMessage(`{"license":"A-1029"}`),
		CapturedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *RedisSnapshotSuite) TestCaptureGetRoundTrip() {
	snap := s.newSnapshot()
	s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))

	got, err := s.store.Get(s.ctx, snap.OperationID)
	s.Require().NoError(err)
	s.Equal(snap.OperationID, got.OperationID)
	s.Equal(snap.SubjectID, got.SubjectID)
	s.Equal(snap.Section, got.Section)
	s.JSONEq(string(snap.PreviousValue), string(got.PreviousValue))
}

func (s *RedisSnapshotSuite) TestUnknownOperation() {
	_, err := s.store.Get(s.ctx, id.NewOperationID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSnapshotSuite) TestTTLEviction() {
	snap := s.newSnapshot()
	s.Require().NoError(s.store.Capture(s.ctx, snap, 500*time.Millisecond))

	_, err := s.store.Get(s.ctx, snap.OperationID)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		_, err := s.store.Get(s.ctx, snap.OperationID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond, "snapshot should expire")
}

func (s *RedisSnapshotSuite) TestDeleteConsumesSnapshot() {
	snap := s.newSnapshot()
	s.Require().NoError(s.store.Capture(s.ctx, snap, time.Hour))
	s.Require().NoError(s.store.Delete(s.ctx, snap.OperationID))

	_, err := s.store.Get(s.ctx, snap.OperationID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSnapshotSuite) TestRejectsNonPositiveTTL() {
	err := s.store.Capture(s.ctx, s.newSnapshot(), 0)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *RedisSnapshotSuite) TestSizeCountsRetained() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Capture(s.ctx, s.newSnapshot(), time.Hour))
	}
	size, err := s.store.Size(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, size)
}
