package middleware

import (
	"net/http"
	"time"
)

// Timeout returns middleware that enforces a request deadline.
// If the handler does not complete within the specified duration, the client
// receives 503 and the request context is cancelled.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, http.StatusText(http.StatusServiceUnavailable))
	}
}
