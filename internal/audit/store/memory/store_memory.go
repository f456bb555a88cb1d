package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"praxis/internal/audit"
	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
	"praxis/pkg/platform/sentinel"
)

// InMemoryStore keeps the change trail in process memory. Entries are stored
// per subject in append order; update entries are additionally indexed by
// operation ID for sync-state mutation.
type InMemoryStore struct {
	mu        sync.RWMutex
	bySubject map[id.SubjectID][]*audit.Entry
	updates   map[id.OperationID]*audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bySubject: make(map[id.SubjectID][]*audit.Entry),
		updates:   make(map[id.OperationID]*audit.Entry),
	}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySubject = make(map[id.SubjectID][]*audit.Entry)
	s.updates = make(map[id.OperationID]*audit.Entry)
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Kind == audit.KindUpdate {
		if _, exists := s.updates[entry.OperationID]; exists {
			return sentinel.ErrConflict
		}
	}

	stored := cloneEntry(&entry)
	s.bySubject[entry.SubjectID] = append(s.bySubject[entry.SubjectID], stored)
	if entry.Kind == audit.KindUpdate {
		s.updates[entry.OperationID] = stored
	}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, operationID id.OperationID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.updates[operationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(entry), nil
}

func (s *InMemoryStore) UpdateSyncState(_ context.Context, operationID id.OperationID, update audit.SyncUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.updates[operationID]
	if !ok {
		return sentinel.ErrNotFound
	}

	entry.SyncStatus = update.Status
	entry.RetryCount = update.RetryCount
	entry.LastError = update.LastError
	if update.Attempt != nil {
		entry.Attempts = append(entry.Attempts, *update.Attempt)
	}
	entry.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) AttachNotifications(_ context.Context, operationID id.OperationID, records []models.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.updates[operationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.Notifications = append(entry.Notifications, records...)
	entry.UpdatedAt = time.Now()
	return nil
}

// ListBySubject returns the subject's entries, newest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectNewestFirst(s.bySubject[subjectID], limit, func(*audit.Entry) bool { return true }), nil
}

// ListBySubjectSection returns the subject's entries for one section, newest first.
func (s *InMemoryStore) ListBySubjectSection(_ context.Context, subjectID id.SubjectID, section models.Section, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return collectNewestFirst(s.bySubject[subjectID], limit, func(e *audit.Entry) bool {
		return e.Section == section
	}), nil
}

// ListUnfinished returns update entries whose sync state is not terminal,
// oldest first so the recovery pass re-enqueues them in acceptance order.
func (s *InMemoryStore) ListUnfinished(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var unfinished []audit.Entry
	for _, entry := range s.updates {
		if !entry.SyncStatus.IsTerminal() {
			unfinished = append(unfinished, *cloneEntry(entry))
		}
	}
	sort.Slice(unfinished, func(i, j int) bool {
		return unfinished[i].CreatedAt.Before(unfinished[j].CreatedAt)
	})
	return unfinished, nil
}

func collectNewestFirst(entries []*audit.Entry, limit int, match func(*audit.Entry) bool) []audit.Entry {
	out := make([]audit.Entry, 0, limit)
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		if match(entries[i]) {
			out = append(out, *cloneEntry(entries[i]))
		}
	}
	return out
}

func cloneEntry(e *audit.Entry) *audit.Entry {
	cp := *e
	cp.Attempts = append([]audit.AttemptRecord(nil), e.Attempts...)
	cp.Notifications = append([]models.NotificationRecord(nil), e.Notifications...)
	return &cp
}
