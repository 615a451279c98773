package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltins(t *testing.T) {
	builtins := Builtins(nil)

	names := []string{"logger", "recover", "requestId", "timeout", "sizeLimit", "rateLimit",
		"cors", "auth", "otel", "poweredBy", "static", "heartbeat"}
	for _, name := range names {
		if builtins[name] == nil {
			t.Errorf("missing builtin %q", name)
		}
	}
	if len(builtins) != len(names) {
		t.Errorf("len = %d, want %d", len(builtins), len(names))
	}
}

func TestBuiltinParams(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("A"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		params  any
		wantErr bool
	}{
		{"logger", nil, false},
		{"logger", map[string]any{"level": "debug", "format": "json"}, false},
		{"timeout", "2s", false},
		{"timeout", map[string]any{"duration": 500}, false},
		{"timeout", nil, true},
		{"timeout", "-1s", true},
		{"sizeLimit", nil, false},
		{"sizeLimit", 1024, false},
		{"sizeLimit", map[string]any{"limit": 10}, false},
		{"rateLimit", map[string]any{"rate": 5, "burst": 5, "by": "client"}, false},
		{"rateLimit", map[string]any{"by": "phase"}, true},
		{"rateLimit", map[string]any{"rate": 0}, true},
		{"cors", map[string]any{"allowOrigins": []any{"http://a.test"}}, false},
		{"auth", map[string]any{"keys": map[string]any{"k": "svc"}}, false},
		{"auth", nil, true},
		{"otel", map[string]any{"serviceName": "svc"}, false},
		{"poweredBy", nil, false},
		{"poweredBy", []any{"Acme"}, false},
		{"poweredBy", 1, true},
		{"static", root, false},
		{"static", nil, true},
		{"heartbeat", map[string]any{"path": "/hb", "interval": "1s"}, false},
		{"heartbeat", map[string]any{"interval": "later"}, true},
		{"heartbeat", "oops", true},
	}

	builtins := Builtins(&mockLogger{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw, err := builtins[tt.name](tt.params)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && mw == nil {
				t.Fatal("expected middleware")
			}
		})
	}
}

func TestBuiltinBehavior(t *testing.T) {
	builtins := Builtins(&mockLogger{})

	t.Run("poweredBy default", func(t *testing.T) {
		mw, _ := builtins["poweredBy"](nil)
		rec := serve(mw(okHandler()), httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get("X-Powered-By") != "Witty" {
			t.Errorf("X-Powered-By = %q", rec.Header().Get("X-Powered-By"))
		}
	})

	t.Run("auth with configured keys", func(t *testing.T) {
		mw, err := builtins["auth"](map[string]any{
			"header": "X-Token",
			"keys":   map[string]any{"secret": "svc"},
		})
		if err != nil {
			t.Fatal(err)
		}
		var id *Identity
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id = IdentityFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Token", "secret")
		serve(handler, req)
		if id == nil || id.ID != "svc" {
			t.Errorf("identity = %+v", id)
		}

		rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("sizeLimit from number", func(t *testing.T) {
		mw, _ := builtins["sizeLimit"](4)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.ContentLength = 5
		rec := serve(mw(okHandler()), req)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
