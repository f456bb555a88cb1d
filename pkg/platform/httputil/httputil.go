// Package httputil centralizes JSON envelope writing and request decoding for
// HTTP handlers. Error translation goes through pkg/domain-errors so every
// handler returns the same envelope shape.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "praxis/pkg/domain-errors"
)

// Validatable is implemented by request DTOs that validate and normalize
// themselves after decoding. Validate returns a coded error on failure.
type Validatable interface {
	Validate() error
}

// validatablePtr constrains PT to "pointer to T that implements Validatable",
// letting DecodeAndPrepare be called with just the struct type.
type validatablePtr[T any] interface {
	*T
	Validatable
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into the standard error envelope:
//
//	{"error": "<code>", "error_description": "<message>"}
//
// Uncoded errors map to internal_error. Internal errors omit the description
// so infrastructure details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// DecodeAndPrepare decodes the request body into T and runs its Validate
// hook. On failure it writes the error envelope and returns ok=false; the
// handler just returns.
//
//	req, ok := httputil.DecodeAndPrepare[UpdateSectionRequest](w, r, h.logger, ctx, requestID)
//	if !ok {
//		return
//	}
func DecodeAndPrepare[T any, PT validatablePtr[T]](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}

	pt := PT(&req)
	if err := pt.Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return pt, true
}
