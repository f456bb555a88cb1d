package handler

import (
	"encoding/json"
	"time"

	"praxis/internal/audit"
	"praxis/internal/profile/models"
	id "praxis/pkg/domain"
)

// updateSectionResponse is the HTTP response for a section update.
type updateSectionResponse struct {
	OperationID       id.OperationID  `json:"operation_id"`
	UpdatedValue      json.RawMessage `json:"updated_value"`
	Impact            models.Impact   `json:"impact"`
	RollbackAvailable bool            `json:"rollback_available"`
}

func newUpdateSectionResponse(result *models.UpdateResult) updateSectionResponse {
	return updateSectionResponse{
		OperationID:       result.OperationID,
		UpdatedValue:      result.UpdatedValue,
		Impact:            result.Impact,
		RollbackAvailable: result.RollbackAvailable,
	}
}

type rollbackResponse struct {
	RolledBack bool `json:"rolled_back"`
}

// changeResponse is the public projection of a trail entry. Attempt history
// and notification records stay on the admin surface.
type changeResponse struct {
	OperationID id.OperationID    `json:"operation_id"`
	Section     models.Section    `json:"section"`
	Kind        audit.Kind        `json:"kind"`
	ActorID     id.ActorID        `json:"actor_id"`
	OldValue    json.RawMessage   `json:"old_value,omitempty"`
	NewValue    json.RawMessage   `json:"new_value,omitempty"`
	Impact      models.Impact     `json:"impact"`
	SyncStatus  models.SyncStatus `json:"sync_status"`
	RetryCount  int               `json:"retry_count"`
	LastError   string            `json:"last_error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type changesResponse struct {
	Changes []changeResponse `json:"changes"`
	Count   int              `json:"count"`
}

func newChangesResponse(entries []audit.Entry) changesResponse {
	changes := make([]changeResponse, 0, len(entries))
	for _, e := range entries {
		changes = append(changes, changeResponse{
			OperationID: e.OperationID,
			Section:     e.Section,
			Kind:        e.Kind,
			ActorID:     e.ActorID,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			Impact:      e.Impact,
			SyncStatus:  e.SyncStatus,
			RetryCount:  e.RetryCount,
			LastError:   e.LastError,
			CreatedAt:   e.CreatedAt,
		})
	}
	return changesResponse{Changes: changes, Count: len(changes)}
}

type operationsResponse struct {
	Operations []*models.SyncOperation `json:"operations"`
	Count      int                     `json:"count"`
}

func newOperationsResponse(ops []*models.SyncOperation) operationsResponse {
	if ops == nil {
		ops = []*models.SyncOperation{}
	}
	return operationsResponse{Operations: ops, Count: len(ops)}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
