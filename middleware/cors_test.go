package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func preflight(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	return req
}

func TestCORS(t *testing.T) {
	t.Run("preflight with wildcard origin", func(t *testing.T) {
		called := false
		handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		rec := serve(handler, preflight("http://example.com"))

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
		if called {
			t.Error("preflight should not reach the handler")
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, HEAD, POST" {
			t.Errorf("allow methods = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Max-Age"); got != "600" {
			t.Errorf("max age = %q", got)
		}
	})

	t.Run("plain OPTIONS reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://example.com")
		rec := serve(CORS(DefaultCORSConfig())(okHandler()), req)

		if rec.Body.String() != "ok" {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("specific origins", func(t *testing.T) {
		handler := CORS(CORSConfig{
			AllowOrigins:     []string{"http://a.test"},
			AllowCredentials: true,
			ExposeHeaders:    []string{RequestIDHeader},
		})(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://a.test")
		rec := serve(handler, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://a.test" {
			t.Errorf("allow origin = %q", got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("expected credentials header")
		}
		if got := rec.Header().Get("Access-Control-Expose-Headers"); got != RequestIDHeader {
			t.Errorf("expose = %q", got)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://b.test")
		rec = serve(handler, req)

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("disallowed origin should get no CORS headers")
		}
		if rec.Body.String() != "ok" {
			t.Error("request should still reach the handler")
		}
	})

	t.Run("disallowed preflight is refused", func(t *testing.T) {
		handler := CORS(CORSConfig{AllowOrigins: []string{"http://a.test"}})(okHandler())
		rec := serve(handler, preflight("http://b.test"))

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("wildcard subdomains", func(t *testing.T) {
		handler := CORS(CORSConfig{AllowOrigins: []string{"https://*.example.com"}})(okHandler())

		cases := map[string]string{
			"https://app.example.com":  "https://app.example.com",
			"https://a.b.example.com":  "https://a.b.example.com",
			"https://example.com":      "",
			"http://app.example.com":   "",
			"https://app.example.com.": "",
		}
		for origin, want := range cases {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", origin)
			rec := serve(handler, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
				t.Errorf("%s: allow origin = %q, want %q", origin, got, want)
			}
		}
	})

	t.Run("credentials echo the origin instead of a wildcard", func(t *testing.T) {
		handler := CORS(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true})(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://c.test")
		rec := serve(handler, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://c.test" {
			t.Errorf("allow origin = %q", got)
		}
	})

	t.Run("requests without origin vary on it", func(t *testing.T) {
		rec := serve(CORS(DefaultCORSConfig())(okHandler()), httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("expected no CORS headers")
		}
		if rec.Header().Get("Vary") != "Origin" {
			t.Errorf("vary = %q", rec.Header().Get("Vary"))
		}
	})
}
