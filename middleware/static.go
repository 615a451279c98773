package middleware

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static returns middleware that serves files from root for GET and HEAD
// requests. Requests that do not name an existing file fall through to the
// next handler. A directory is served through its index.html when present.
func Static(root string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
			info, err := os.Stat(name)
			if err == nil && info.IsDir() {
				if !strings.HasSuffix(r.URL.Path, "/") {
					next.ServeHTTP(w, r)
					return
				}
				name = filepath.Join(name, "index.html")
				info, err = os.Stat(name)
			}
			if err != nil || !info.Mode().IsRegular() {
				next.ServeHTTP(w, r)
				return
			}

			http.ServeFile(w, r, name)
		})
	}
}
