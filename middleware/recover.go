package middleware

import (
	"errors"
	"fmt"
	"net/http"
)

// PanicHandler is called when a panic is recovered.
type PanicHandler func(w http.ResponseWriter, r *http.Request, panicVal any)

// Recover returns middleware that catches panics and responds with 500.
func Recover() Middleware {
	return RecoverWithHandler(defaultPanicHandler)
}

// RecoverWithLogger is Recover with the panic value logged at error level.
func RecoverWithLogger(logger Logger) Middleware {
	return RecoverWithHandler(func(w http.ResponseWriter, r *http.Request, panicVal any) {
		logger.Error("panic recovered",
			F("method", r.Method),
			F("path", r.URL.Path),
			F("panic", panicMessage(panicVal)),
			F("request_id", RequestIDFromContext(r.Context())),
		)
		defaultPanicHandler(w, r, panicVal)
	})
}

// RecoverWithHandler returns middleware that catches panics and calls the provided handler.
// This allows for custom panic handling such as logging or alerting.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
						panic(v)
					}
					handler(w, r, v)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// defaultPanicHandler converts a panic value to an internal server error.
func defaultPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func panicMessage(panicVal any) string {
	switch v := panicVal.(type) {
	case error:
		return fmt.Sprintf("panic: %v", v)
	case string:
		return fmt.Sprintf("panic: %s", v)
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}
