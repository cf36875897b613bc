package middleware

import (
	"net/http"

	"github.com/codesense-dev/codesense/internal/log"
	"github.com/go-chi/chi/v5/middleware"
)

const correlationHeader = "X-Correlation-ID"

// CorrelationID propagates an inbound X-Correlation-ID header (falling back
// to chi's per-request ID) through the request context via internal/log's
// correlation-ID key, so every log line emitted while handling the request
// carries it without a second, disjoint context-key namespace.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}

		w.Header().Set(correlationHeader, id)
		ctx := log.WithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
