package profile

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
)

type ProfileStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) newSubject() id.SubjectID {
	subjectID := id.SubjectID(uuid.New())
	s.Require().NoError(s.store.CreateProfile(s.ctx, subjectID))
	return subjectID
}

// TestProvisioning verifies subject creation and duplicate rejection.
func (s *ProfileStoreSuite) TestProvisioning() {
	s.Run("creates a subject once", func() {
		subjectID := id.SubjectID(uuid.New())
		s.Require().NoError(s.store.CreateProfile(s.ctx, subjectID))

		err := s.store.CreateProfile(s.ctx, subjectID)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown subject reads fail with ErrNotFound", func() {
		_, err := s.store.ReadSection(s.ctx, id.SubjectID(uuid.New()), models.SectionBio)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown subject writes fail with ErrNotFound", func() {
		err := s.store.WriteSection(s.ctx, id.SubjectID(uuid.New()), models.SectionBio, json.RawMessage(`"x"`), time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestSectionReadWrite verifies upsert semantics and the unset-section contract.
func (s *ProfileStoreSuite) TestSectionReadWrite() {
	s.Run("unset section reads as nil value, nil error", func() {
		subjectID := s.newSubject()

		value, err := s.store.ReadSection(s.ctx, subjectID, models.SectionBio)
		s.Require().NoError(err)
		s.Nil(value)
	})

	s.Run("write then read round-trips", func() {
		subjectID := s.newSubject()
		payload := json.RawMessage(`{"headline":"Family law, 12 years"}`)

		s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionBio, payload, time.Now()))

		value, err := s.store.ReadSection(s.ctx, subjectID, models.SectionBio)
		s.Require().NoError(err)
		s.JSONEq(string(payload), string(value))
	})

	s.Run("second write overwrites", func() {
		subjectID := s.newSubject()
		s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionStatus, json.RawMessage(`"active"`), time.Now()))
		s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionStatus, json.RawMessage(`"paused"`), time.Now()))

		value, err := s.store.ReadSection(s.ctx, subjectID, models.SectionStatus)
		s.Require().NoError(err)
		s.JSONEq(`"paused"`, string(value))
	})

	s.Run("sections are isolated per subject", func() {
		first := s.newSubject()
		second := s.newSubject()
		s.Require().NoError(s.store.WriteSection(s.ctx, first, models.SectionBio, json.RawMessage(`"one"`), time.Now()))

		value, err := s.store.ReadSection(s.ctx, second, models.SectionBio)
		s.Require().NoError(err)
		s.Nil(value)
	})
}

// TestCopyOnRead verifies callers cannot mutate stored state through returned values.
func (s *ProfileStoreSuite) TestCopyOnRead() {
	subjectID := s.newSubject()
	s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionBio, json.RawMessage(`"before"`), time.Now()))

	value, err := s.store.ReadSection(s.ctx, subjectID, models.SectionBio)
	s.Require().NoError(err)
	value[1] = 'X'

	again, err := s.store.ReadSection(s.ctx, subjectID, models.SectionBio)
	s.Require().NoError(err)
	s.JSONEq(`"before"`, string(again))
}

// TestListSections verifies the full-profile view.
func (s *ProfileStoreSuite) TestListSections() {
	subjectID := s.newSubject()
	s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionBio, json.RawMessage(`"bio"`), time.Now()))
	s.Require().NoError(s.store.WriteSection(s.ctx, subjectID, models.SectionLanguages, json.RawMessage(`["en","fr"]`), time.Now()))

	sections, err := s.store.ListSections(s.ctx, subjectID)
	s.Require().NoError(err)
	s.Len(sections, 2)
	s.JSONEq(`"bio"`, string(sections[models.SectionBio]))
	s.JSONEq(`["en","fr"]`, string(sections[models.SectionLanguages]))
}
