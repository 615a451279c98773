package middleware

import "net/http"

// PoweredBy returns middleware that sets the X-Powered-By response header.
func PoweredBy(name string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Powered-By", name)
			next.ServeHTTP(w, r)
		})
	}
}
