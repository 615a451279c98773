package middleware

import (
	"net/http"
	"time"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs request details.
// Successful requests are logged at info level, server errors at error level.
func Logging(logger Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)

			// Build fields
			fields := []Field{
				F("method", r.Method),
				F("path", r.URL.Path),
				F("status", rec.status),
				F("duration", duration),
			}

			// Add request ID if present
			if requestID := RequestIDFromContext(r.Context()); requestID != "" {
				fields = append(fields, F("request_id", requestID))
			}

			if rec.status >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
			} else {
				logger.Info("request completed", fields...)
			}
		})
	}
}

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
