package models

import (
	"encoding/json"
	"time"

	id "praxis/pkg/domain"
)

// RollbackSnapshot preserves the pre-update value of a section so an accepted
// change can be compensated later.
//
// Invariants:
//   - Captured BEFORE the authoritative write; if capture fails the update
//     proceeds without rollback support, never the other way around
//   - Evicted after the retention window regardless of sync outcome, so
//     rollback availability is time-bounded, not state-bounded
//   - Removed on successful rollback: compensation is single-shot
type RollbackSnapshot struct {
	OperationID   id.OperationID  `json:"operation_id"`
	SubjectID     id.SubjectID    `json:"subject_id"`
	Section       Section         `json:"section"`
	PreviousValue json.RawMessage `json:"previous_value"`
	CapturedAt    time.Time       `json:"captured_at"`
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (s *RollbackSnapshot) Clone() *RollbackSnapshot {
	cp := *s
	if s.PreviousValue != nil {
		cp.PreviousValue = append(json.RawMessage(nil), s.PreviousValue...)
	}
	return &cp
}
