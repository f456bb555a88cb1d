package handler

import (
	"encoding/json"

	dErrors "praxis/pkg/domain-errors"
)

// maxSectionValueBytes caps the accepted section payload. Sections are
// profile fragments, not documents.
const maxSectionValueBytes = 64 * 1024

// updateSectionRequest is the body of POST /v1/profiles/{subjectID}/sections/{section}.
type updateSectionRequest struct {
	Value json.RawMessage `json:"value"`
}

// Validate implements httputil.Validatable.
func (r *updateSectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Value) == 0 {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	if len(r.Value) > maxSectionValueBytes {
		return dErrors.New(dErrors.CodeValidation, "value must be at most 64KiB")
	}
	if !json.Valid(r.Value) {
		return dErrors.New(dErrors.CodeValidation, "value must be valid JSON")
	}
	return nil
}
