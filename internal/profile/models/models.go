// Package models holds the profile synchronization domain model: sections,
// downstream systems, impact levels and the operation state machine.
package models

import (
	"encoding/json"
	"time"

	id "praxis/pkg/domain"
)

// System identifies a downstream consumer of profile data.
type System string

// Downstream systems profile changes propagate to.
const (
	SystemSearch       System = "search"
	SystemBooking      System = "booking"
	SystemCache        System = "cache"
	SystemIntegrations System = "integrations"
)

// AllSystems returns every downstream system.
func AllSystems() []System {
	return []System{SystemSearch, SystemBooking, SystemCache, SystemIntegrations}
}

// IsValid checks if the system is one of the supported enum values.
func (s System) IsValid() bool {
	switch s {
	case SystemSearch, SystemBooking, SystemCache, SystemIntegrations:
		return true
	}
	return false
}

// String returns the string representation.
func (s System) String() string {
	return string(s)
}

// Impact grades how disruptive a profile change is to active marketplace
// flows. It drives notification fanout: high and critical changes notify
// affected stakeholders, low and medium do not.
type Impact string

// Impact levels, ordered.
const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

var impactRank = map[Impact]int{
	ImpactLow:      1,
	ImpactMedium:   2,
	ImpactHigh:     3,
	ImpactCritical: 4,
}

// IsValid checks if the impact is one of the supported enum values.
func (i Impact) IsValid() bool {
	_, ok := impactRank[i]
	return ok
}

// AtLeast reports whether this impact is greater than or equal to other.
// Unknown impacts rank below every known level.
func (i Impact) AtLeast(other Impact) bool {
	return impactRank[i] >= impactRank[other]
}

// String returns the string representation.
func (i Impact) String() string {
	return string(i)
}

// Classification is the classifier's verdict for one section change.
type Classification struct {
	Impact  Impact   `json:"impact"`
	Systems []System `json:"systems"`
}

// RequiresNotification reports whether stakeholders must be told about a
// change of this classification.
func (c Classification) RequiresNotification() bool {
	return c.Impact.AtLeast(ImpactHigh)
}

// SyncStatus is the operation-level synchronization state.
//
// Transitions: queued → processing → completed | failed. Terminal states
// never change; a retry moves the operation back to queued.
type SyncStatus string

// Operation-level sync states.
const (
	SyncQueued     SyncStatus = "queued"
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// IsTerminal reports whether the status is final.
func (s SyncStatus) IsTerminal() bool {
	return s == SyncCompleted || s == SyncFailed
}

// String returns the string representation.
func (s SyncStatus) String() string {
	return string(s)
}

// SystemOutcome is the per-system propagation state within one attempt.
//
// Transitions within an attempt: pending → updated | failed. A retry resets
// every system back to pending; downstream writes are idempotent so
// re-applying an already-updated system is harmless.
type SystemOutcome string

// Per-system propagation states.
const (
	OutcomePending SystemOutcome = "pending"
	OutcomeUpdated SystemOutcome = "updated"
	OutcomeFailed  SystemOutcome = "failed"
)

// SyncOperation is one queued propagation of an accepted profile change to
// its affected downstream systems.
//
// Invariants:
//   - Systems and SystemStatus cover the same set, fixed at classification
//   - RetryCount never exceeds the configured retry budget
//   - Status transitions follow SyncStatus; SystemStatus entries follow
//     SystemOutcome within a single attempt
type SyncOperation struct {
	OperationID  id.OperationID           `json:"operation_id"`
	SubjectID    id.SubjectID             `json:"subject_id"`
	Section      Section                  `json:"section"`
	NewValue     json.RawMessage          `json:"new_value"`
	Impact       Impact                   `json:"impact"`
	Systems      []System                 `json:"systems"`
	Status       SyncStatus               `json:"status"`
	SystemStatus map[System]SystemOutcome `json:"system_status"`
	RetryCount   int                      `json:"retry_count"`
	Notified     bool                     `json:"notified"`
	LastError    string                   `json:"last_error,omitempty"`
	QueuedAt     time.Time                `json:"queued_at"`
	NotBefore    time.Time                `json:"not_before,omitempty"`
	FinishedAt   time.Time                `json:"finished_at,omitempty"`
}

// NewSyncOperation builds a queued operation from a classified change.
// Every affected system starts pending.
func NewSyncOperation(opID id.OperationID, subjectID id.SubjectID, section Section, value json.RawMessage, c Classification, now time.Time) *SyncOperation {
	statuses := make(map[System]SystemOutcome, len(c.Systems))
	for _, sys := range c.Systems {
		statuses[sys] = OutcomePending
	}
	return &SyncOperation{
		OperationID:  opID,
		SubjectID:    subjectID,
		Section:      section,
		NewValue:     value,
		Impact:       c.Impact,
		Systems:      append([]System(nil), c.Systems...),
		Status:       SyncQueued,
		SystemStatus: statuses,
		QueuedAt:     now,
	}
}

// ResetForRetry returns every system to pending for the next attempt and
// stamps the earliest time the operation may run again.
func (op *SyncOperation) ResetForRetry(notBefore time.Time) {
	for sys := range op.SystemStatus {
		op.SystemStatus[sys] = OutcomePending
	}
	op.Status = SyncQueued
	op.NotBefore = notBefore
}

// AllUpdated reports whether every affected system acknowledged the change.
func (op *SyncOperation) AllUpdated() bool {
	for _, outcome := range op.SystemStatus {
		if outcome != OutcomeUpdated {
			return false
		}
	}
	return true
}

// FailedSystems lists the systems that rejected the change this attempt.
func (op *SyncOperation) FailedSystems() []System {
	var failed []System
	for _, sys := range op.Systems {
		if op.SystemStatus[sys] == OutcomeFailed {
			failed = append(failed, sys)
		}
	}
	return failed
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (op *SyncOperation) Clone() *SyncOperation {
	cp := *op
	cp.NewValue = append(json.RawMessage(nil), op.NewValue...)
	cp.Systems = append([]System(nil), op.Systems...)
	cp.SystemStatus = make(map[System]SystemOutcome, len(op.SystemStatus))
	for sys, outcome := range op.SystemStatus {
		cp.SystemStatus[sys] = outcome
	}
	return &cp
}

// SectionChange is the unit of propagation handed to downstream adapters and
// emitted to external consumers.
//
// OccurredAt is when the change was accepted, not when an attempt runs, so
// the payload stays identical across retries and consumers can dedupe on
// OperationID.
type SectionChange struct {
	OperationID id.OperationID  `json:"operation_id"`
	SubjectID   id.SubjectID    `json:"subject_id"`
	Section     Section         `json:"section"`
	Value       json.RawMessage `json:"value"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Change builds the propagation payload for this operation.
func (op *SyncOperation) Change() SectionChange {
	return SectionChange{
		OperationID: op.OperationID,
		SubjectID:   op.SubjectID,
		Section:     op.Section,
		Value:       op.NewValue,
		OccurredAt:  op.QueuedAt,
	}
}

// UpdateResult is what performUpdate returns to the caller: the accepted
// value plus the handle for rollback and audit correlation.
type UpdateResult struct {
	OperationID       id.OperationID  `json:"operation_id"`
	UpdatedValue      json.RawMessage `json:"updated_value"`
	Impact            Impact          `json:"impact"`
	RollbackAvailable bool            `json:"rollback_available"`
}

// SyncStats is the operational snapshot served to admins.
type SyncStats struct {
	Queued     int    `json:"queued"`
	Processing int    `json:"processing"`
	Completed  uint64 `json:"completed"`
	Failed     uint64 `json:"failed"`
	Retries    uint64 `json:"retries"`
	QueueDepth int    `json:"queue_depth"`
	Snapshots  int    `json:"snapshots"`
}
