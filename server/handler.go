package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/taoyuan/witty/middleware"
)

// mount is middleware registered in a phase, optionally limited to paths.
type mount struct {
	paths []string
	mw    middleware.Middleware
}

// middleware returns mw, skipped for requests outside m.paths.
func (m mount) middleware() middleware.Middleware {
	if len(m.paths) == 0 {
		return m.mw
	}
	return func(next http.Handler) http.Handler {
		wrapped := m.mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matchPaths(m.paths, r.URL.Path) {
				wrapped.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// cleanPaths normalizes mount paths to "/a/b" form.
func cleanPaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		out = append(out, path.Clean(p))
	}
	return out
}

// matchPaths reports whether urlPath is one of paths or below one.
func matchPaths(paths []string, urlPath string) bool {
	for _, p := range paths {
		if p == "/" || urlPath == p || strings.HasPrefix(urlPath, p+"/") {
			return true
		}
	}
	return false
}
