package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDContextKey holds the per-request correlation id.
const requestIDContextKey contextKey = "httpapi.request_id"

// withRequestID assigns every inbound request a correlation id, mirroring
// payments-gateway/server.go's uuid.NewString() resource-id pattern, and
// echoes it back on the response so a caller can correlate retries with
// logged errors.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext returns the correlation id attached by withRequestID,
// or "" outside of a request scope.
func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDContextKey).(string)
	return v
}
