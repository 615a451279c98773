package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// mockLogger captures log calls for testing.
type mockLogger struct {
	entries []logEntry
}

type logEntry struct {
	level   string
	message string
	fields  []Field
}

func (l *mockLogger) Info(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "info", message: msg, fields: fields})
}

func (l *mockLogger) Error(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "error", message: msg, fields: fields})
}

func (l *mockLogger) Debug(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "debug", message: msg, fields: fields})
}

func (l *mockLogger) Warn(msg string, fields ...Field) {
	l.entries = append(l.entries, logEntry{level: "warn", message: msg, fields: fields})
}

func (e logEntry) field(key string) (any, bool) {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func TestLogging(t *testing.T) {
	t.Run("logs successful requests", func(t *testing.T) {
		logger := &mockLogger{}

		wrapped := Logging(logger)(okHandler())
		serve(wrapped, httptest.NewRequest(http.MethodGet, "/users", nil))

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}

		entry := logger.entries[0]
		if entry.level != "info" {
			t.Errorf("level = %q, want %q", entry.level, "info")
		}
		if entry.message != "request completed" {
			t.Errorf("message = %q, want %q", entry.message, "request completed")
		}
		if v, _ := entry.field("path"); v != "/users" {
			t.Errorf("path = %v", v)
		}
		if v, _ := entry.field("status"); v != http.StatusOK {
			t.Errorf("status = %v", v)
		}
		if v, _ := entry.field("duration"); v == nil {
			t.Error("expected 'duration' field in log")
		} else if _, ok := v.(time.Duration); !ok {
			t.Errorf("duration has type %T", v)
		}
	})

	t.Run("logs server errors at error level", func(t *testing.T) {
		logger := &mockLogger{}

		wrapped := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.WriteHeader(http.StatusOK)
		}))
		serve(wrapped, httptest.NewRequest(http.MethodGet, "/", nil))

		entry := logger.entries[0]
		if entry.level != "error" {
			t.Errorf("level = %q, want error", entry.level)
		}
		if v, _ := entry.field("status"); v != http.StatusBadGateway {
			t.Errorf("status = %v, want first written status", v)
		}
	})

	t.Run("includes request ID when present", func(t *testing.T) {
		logger := &mockLogger{}

		wrapped := Chain(RequestIDWithGenerator(func() string { return "req-1" }), Logging(logger))(okHandler())
		serve(wrapped, httptest.NewRequest(http.MethodGet, "/", nil))

		if v, _ := logger.entries[0].field("request_id"); v != "req-1" {
			t.Errorf("request_id = %v", v)
		}
	})
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Info("a")
	l.Error("b", F("k", 1))
	l.Debug("c")
	l.Warn("d")
}

func TestSlogLogger(t *testing.T) {
	t.Run("json format with level filter", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewSlogLogger(&buf, "warn", "json")

		l.Info("dropped")
		l.Warn("kept", F("phase", "routes"))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("lines = %q", lines)
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if rec["msg"] != "kept" || rec["phase"] != "routes" || rec["level"] != "WARN" {
			t.Errorf("record = %v", rec)
		}
	})

	t.Run("text format defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewSlogLogger(&buf, "", "")

		l.Debug("hidden")
		l.Info("shown")

		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
			t.Errorf("output = %q", buf.String())
		}
	})
}
