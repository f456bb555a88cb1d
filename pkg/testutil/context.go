package testutil

import (
	"context"
	"net/http"
	"time"

	id "praxis/pkg/domain"
	"praxis/pkg/requestcontext"
)

// WithActor stamps an authenticated actor on the request, simulating what the
// auth middleware does after validating a bearer token.
// If the actorID is not a valid UUID, the request is returned unchanged.
func WithActor(req *http.Request, actorID string) *http.Request {
	if parsed, err := id.ParseActorID(actorID); err == nil {
		return req.WithContext(requestcontext.WithActorID(req.Context(), parsed))
	}
	return req
}

// WithClientMetadata stamps client IP and user agent on the request, the way
// the metadata middleware would.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}

// WithFrozenTime pins the request clock so handlers observe a fixed now.
func WithFrozenTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
