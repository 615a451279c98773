package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader is the header read and written by RequestID.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that injects a unique request ID into the context.
// An incoming X-Request-ID header is preserved; the ID is echoed in the response.
func RequestID() Middleware {
	return RequestIDWithGenerator(generateID)
}

// RequestIDWithGenerator returns middleware that uses a custom ID generator.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Check if request ID already exists
			id := RequestIDFromContext(ctx)
			if id == "" {
				id = r.Header.Get(RequestIDHeader)
			}
			if id == "" {
				id = generator()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ContextWithRequestID(ctx, id)))
		})
	}
}

// RequestIDFromContext returns the request ID from the context, or empty string if not set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithRequestID returns a new context with the request ID set.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func generateID() string {
	return uuid.NewString()
}
