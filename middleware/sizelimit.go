package middleware

import (
	"net/http"
)

// SizeLimitOption configures the size limit middleware.
type SizeLimitOption func(*sizeLimitConfig)

type sizeLimitConfig struct {
	logger Logger
}

// WithSizeLimitLogger sets the logger for size limit events.
func WithSizeLimitLogger(l Logger) SizeLimitOption {
	return func(o *sizeLimitConfig) {
		o.logger = l
	}
}

// SizeLimit returns middleware that rejects requests exceeding the specified size.
// Requests with a declared Content-Length above maxBytes get 413 immediately;
// other bodies are capped with http.MaxBytesReader.
func SizeLimit(maxBytes int64, opts ...SizeLimitOption) Middleware {
	cfg := &sizeLimitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				if cfg.logger != nil {
					cfg.logger.Warn("request size limit exceeded",
						Field{Key: "method", Value: r.Method},
						Field{Key: "path", Value: r.URL.Path},
						Field{Key: "size", Value: r.ContentLength},
						Field{Key: "max", Value: maxBytes},
					)
				}
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Common size limit presets.
const (
	// KB is 1024 bytes.
	KB = 1024
	// MB is 1024 * 1024 bytes.
	MB = 1024 * 1024
)
