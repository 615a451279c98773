// Package e2e boots complete applications from configuration directories
// and exercises them over HTTP.
package e2e

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyuan/witty"
	"github.com/taoyuan/witty/config"
	"github.com/taoyuan/witty/pipeline"
	"github.com/taoyuan/witty/resolver"
	"github.com/taoyuan/witty/testutil"
	"github.com/taoyuan/witty/transport"
)

const baseMiddleware = `{
  "initial": {
    "witty#recover": {},
    "witty#requestId": {},
    "witty#poweredBy": {"params": "Witty"}
  },
  "auth": {
    "witty#auth": {"params": {"keys": {"dev-key": "developer"}}, "paths": "/api"}
  },
  "routes:before": {
    "witty#cors": {"params": {"allowOrigins": ["https://example.com"]}}
  },
  "files": {
    "witty#static": {"params": "$!./public"}
  }
}`

// serve boots app from dir and serves it on a random port until the test ends.
func serve(t *testing.T, app *witty.App, dir string) string {
	t.Helper()

	h := transport.NewHTTP("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- witty.Boot(ctx, app, witty.BootOptions{Dir: dir}, witty.HTTPServerOn(h))
	}()

	select {
	case <-h.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("boot failed: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})
	return "http://" + h.ListenAddr()
}

func get(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestBootServesConfiguredPipeline(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	dir := testutil.WriteFiles(t, map[string]string{
		"config.json":      `{"title": "e2e"}`,
		"middleware.json":  baseMiddleware,
		"public/index.txt": "static file",
	})

	app := witty.New(witty.WithSetting("env", "development"))
	app.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["a","b"]`)
	})
	app.HandleFunc("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	base := serve(t, app, dir)

	assert.Equal(t, "e2e", app.Get("title"))

	t.Run("static files", func(t *testing.T) {
		resp := get(t, base+"/index.txt", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "static file", body(t, resp))
		assert.Equal(t, "Witty", resp.Header.Get("X-Powered-By"))
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	})

	t.Run("auth is mounted on /api", func(t *testing.T) {
		resp := get(t, base+"/api/items", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = get(t, base+"/api/items", http.Header{"X-Api-Key": {"dev-key"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `["a","b"]`, body(t, resp))
	})

	t.Run("cors headers", func(t *testing.T) {
		resp := get(t, base+"/index.txt", http.Header{"Origin": {"https://example.com"}})
		assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("panics are recovered", func(t *testing.T) {
		resp := get(t, base+"/panic", nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestBootAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	dir := testutil.WriteFiles(t, map[string]string{
		"middleware.json": baseMiddleware,
		"middleware.production.yaml": `
initial:
  witty#poweredBy:
    enabled: false
`,
		"middleware.local.hcl": `
auth = {
  "witty#auth" = { params = { keys = { "local-key" = "local" } } }
}
`,
	})

	app := witty.New(witty.WithSetting("env", "production"))
	app.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {})
	base := serve(t, app, dir)

	resp := get(t, base+"/api/items", http.Header{"X-Api-Key": {"local-key"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Powered-By"), "poweredBy is disabled in production")

	resp = get(t, base+"/api/items", http.Header{"X-Api-Key": {"dev-key"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "local keys are merged into base keys")

	resp = get(t, base+"/api/items", http.Header{"X-Api-Key": {"other"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBootRejectsUndefinedMiddleware(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	dir := testutil.WriteFiles(t, map[string]string{
		"middleware.json":            `{"init": {"witty#logger": {}}}`,
		"middleware.production.json": `{"init": {"witty#tracer": {}}}`,
	})

	app := witty.New(witty.WithSetting("env", "production"))
	err := witty.Boot(context.Background(), app, witty.BootOptions{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUndefinedMiddleware))
	assert.Contains(t, err.Error(), `middleware "witty#tracer" in phase "init" is not defined`)
}

func TestBootReportsUnresolvableMiddleware(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	dir := testutil.WriteFiles(t, map[string]string{
		"middleware.json": `{"routes": {"./middleware/missing": {}}}`,
	})

	err := witty.Boot(context.Background(), witty.New(), witty.BootOptions{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, resolver.ErrPathNotFound))
	assert.True(t, strings.Contains(err.Error(), "./middleware/missing"))
}

func TestBootReportsMissingExport(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	dir := testutil.WriteFiles(t, map[string]string{
		"middleware.json": `{"routes": {"witty#nope": {}}}`,
	})

	err := witty.Boot(context.Background(), witty.New(), witty.BootOptions{Dir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, resolver.ErrPathNotFound), "nope is neither an export nor a sub-module: %v", err)
}

func TestBootReportsFactoryErrors(t *testing.T) {
	t.Setenv("WITTY_PATH", "")

	reg, err := witty.NewRegistry(nil)
	require.NoError(t, err)

	dir := testutil.WriteFiles(t, map[string]string{
		"middleware.json": `{"routes": {"./middleware/settings": {}}}`,
	})
	reg.MustMount(dir+"/middleware/settings", map[string]int{"not": 1})

	err = witty.Boot(context.Background(), witty.New(), witty.BootOptions{Dir: dir, Modules: reg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrFactoryType))

	var instrErr *pipeline.InstructionError
	require.True(t, errors.As(err, &instrErr))
	assert.Equal(t, "routes", instrErr.Instruction.Phase())
}
