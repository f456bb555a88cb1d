package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"praxis/pkg/requestcontext"
)

// RequestID assigns each request a correlation ID and stamps the request
// time into the context. Incoming X-Request-ID headers are honored so IDs
// survive proxy hops; the ID is echoed on the response either way.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
