// Package testutil provides testing utilities for witty applications.
//
// It offers a recording pipeline host, an HTTP test client for composed
// handlers, file helpers and middleware that leave a visible trace.
//
// Example usage:
//
//	func TestPipeline(t *testing.T) {
//	    host := testutil.NewHost()
//	    err := pipeline.Install(host, plan, reg)
//	    require.NoError(t, err)
//	    host.AssertInstalled(t, "routes", 2)
//	}
package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/taoyuan/witty/middleware"
)

// Install is one MiddlewareFromConfig call recorded by Host.
type Install struct {
	Factory middleware.Factory
	Config  middleware.Config
}

// Host is a pipeline host that records what is installed into it.
type Host struct {
	mu       sync.Mutex
	settings map[string]any
	phases   [][]string
	installs []Install

	// PhaseErr, when set, is returned by DefineMiddlewarePhases.
	PhaseErr error
	// FailAt makes the install with this index (zero-based) fail with
	// InstallErr. Negative disables it.
	FailAt     int
	InstallErr error
}

// NewHost creates a recording host with the given settings.
func NewHost(settings ...map[string]any) *Host {
	h := &Host{settings: make(map[string]any), FailAt: -1}
	for _, s := range settings {
		for k, v := range s {
			h.settings[k] = v
		}
	}
	return h
}

// Get returns a setting.
func (h *Host) Get(key string) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.settings[key]
}

// Set stores a setting.
func (h *Host) Set(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.settings[key] = value
}

// DefineMiddlewarePhases records names.
func (h *Host) DefineMiddlewarePhases(names []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.PhaseErr != nil {
		return h.PhaseErr
	}
	h.phases = append(h.phases, append([]string(nil), names...))
	return nil
}

// MiddlewareFromConfig records the factory and config.
func (h *Host) MiddlewareFromConfig(factory middleware.Factory, cfg middleware.Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailAt == len(h.installs) {
		return h.InstallErr
	}
	h.installs = append(h.installs, Install{Factory: factory, Config: cfg})
	return nil
}

// Phases returns every phase list defined so far.
func (h *Host) Phases() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]string(nil), h.phases...)
}

// Installs returns the recorded installs in order.
func (h *Host) Installs() []Install {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Install(nil), h.installs...)
}

// AssertInstalled checks that exactly n middleware were installed into phase.
func (h *Host) AssertInstalled(t testing.TB, phase string, n int) {
	t.Helper()

	count := 0
	for _, in := range h.Installs() {
		if in.Config.Phase == phase {
			count++
		}
	}
	if count != n {
		t.Errorf("installed %d middleware in phase %q, want %d", count, phase, n)
	}
}

// TestClient sends requests to an http.Handler in-process.
type TestClient struct {
	t       testing.TB
	handler http.Handler
}

// NewTestClient creates a client for handler.
func NewTestClient(t testing.TB, handler http.Handler) *TestClient {
	t.Helper()
	if handler == nil {
		t.Fatal("testutil: nil handler")
	}
	return &TestClient{t: t, handler: handler}
}

// Do serves req and returns the recorded response.
func (tc *TestClient) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tc.handler.ServeHTTP(rec, req)
	return rec
}

// Get serves a GET request for target.
func (tc *TestClient) Get(target string) *httptest.ResponseRecorder {
	return tc.Do(httptest.NewRequest(http.MethodGet, target, nil))
}

// AssertStatus checks the response status code.
func (tc *TestClient) AssertStatus(rec *httptest.ResponseRecorder, code int) {
	tc.t.Helper()
	if rec.Code != code {
		tc.t.Errorf("status = %d, want %d (body %q)", rec.Code, code, rec.Body.String())
	}
}

// AssertHeader checks a response header value.
func (tc *TestClient) AssertHeader(rec *httptest.ResponseRecorder, key, want string) {
	tc.t.Helper()
	if got := rec.Header().Get(key); got != want {
		tc.t.Errorf("header %s = %q, want %q", key, got, want)
	}
}

// TraceHeader collects the tags added by Tag.
const TraceHeader = "X-Trace"

// Tag returns middleware that appends tag to the X-Trace response header,
// so tests can observe execution order.
func Tag(tag string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add(TraceHeader, tag)
			next.ServeHTTP(w, r)
		})
	}
}

// TagFactory is a factory building Tag middleware. Params are the tag,
// or {"tag": "..."}; without params prefix is used.
func TagFactory(prefix string) middleware.Factory {
	return func(params any) (middleware.Middleware, error) {
		switch p := params.(type) {
		case string:
			return Tag(p), nil
		case map[string]any:
			if tag, ok := p["tag"].(string); ok {
				return Tag(tag), nil
			}
		}
		return Tag(prefix), nil
	}
}

// Trace returns the tags recorded in rec, in order.
func Trace(rec *httptest.ResponseRecorder) []string {
	return rec.Header().Values(TraceHeader)
}

// TraceString joins Trace with commas.
func TraceString(rec *httptest.ResponseRecorder) string {
	return strings.Join(Trace(rec), ",")
}

// WriteFiles creates files under a temporary directory and returns it.
// Keys are slash-separated relative paths.
func WriteFiles(t testing.TB, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("testutil: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("testutil: %v", err)
		}
	}
	return dir
}
