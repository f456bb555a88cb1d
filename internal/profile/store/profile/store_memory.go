// Package profile persists the authoritative subject record: one JSON value
// per named section, last writer wins.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

// Error Contract:
// All store methods follow this error pattern:
// - Return ErrNotFound when the subject does not exist
// - Return ErrConflict when creating a subject that already exists
// - Return nil value, nil error for a section that was never written
// MemoryStore keeps authoritative profiles in memory for tests/dev.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.SubjectID]map[models.Section]json.RawMessage
}

// NewMemoryStore constructs an empty in-memory profile store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[id.SubjectID]map[models.Section]json.RawMessage)}
}

func (s *MemoryStore) CreateProfile(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[subjectID]; ok {
		return fmt.Errorf("profile %s already exists: %w", subjectID, sentinel.ErrConflict)
	}
	s.profiles[subjectID] = make(map[models.Section]json.RawMessage)
	return nil
}

func (s *MemoryStore) ReadSection(_ context.Context, subjectID id.SubjectID, section models.Section) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections, ok := s.profiles[subjectID]
	if !ok {
		return nil, fmt.Errorf("profile %s not found: %w", subjectID, sentinel.ErrNotFound)
	}
	value, ok := sections[section]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), value...), nil
}

func (s *MemoryStore) WriteSection(_ context.Context, subjectID id.SubjectID, section models.Section, value json.RawMessage, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sections, ok := s.profiles[subjectID]
	if !ok {
		return fmt.Errorf("profile %s not found: %w", subjectID, sentinel.ErrNotFound)
	}
	sections[section] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *MemoryStore) ListSections(_ context.Context, subjectID id.SubjectID) (map[models.Section]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sections, ok := s.profiles[subjectID]
	if !ok {
		return nil, fmt.Errorf("profile %s not found: %w", subjectID, sentinel.ErrNotFound)
	}
	out := make(map[models.Section]json.RawMessage, len(sections))
	for section, value := range sections {
		out[section] = append(json.RawMessage(nil), value...)
	}
	return out, nil
}
