package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin resource sharing. Field tags match the
// keys accepted by the "cors" factory.
type CORSConfig struct {
	// AllowOrigins lists exact origins, "*" for any origin, or patterns with
	// one leading wildcard label such as "https://*.example.com".
	AllowOrigins     []string `json:"allowOrigins"`
	AllowMethods     []string `json:"allowMethods"`
	AllowHeaders     []string `json:"allowHeaders"`
	ExposeHeaders    []string `json:"exposeHeaders"`
	AllowCredentials bool     `json:"allowCredentials"`
	// MaxAge is how long, in seconds, a preflight answer may be cached.
	// Negative disables caching.
	MaxAge int `json:"maxAge"`
}

// DefaultCORSConfig allows any origin with the common methods and headers.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		MaxAge:       600,
	}
}

type originMatcher struct {
	any      bool
	exact    map[string]bool
	suffixes [][2]string
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: map[string]bool{}}
	for _, o := range origins {
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			m.suffixes = append(m.suffixes, [2]string{scheme + "://", host})
		default:
			m.exact[strings.ToLower(o)] = true
		}
	}
	return m
}

func (m originMatcher) match(origin string) bool {
	origin = strings.ToLower(origin)
	if m.exact[origin] {
		return true
	}
	for _, s := range m.suffixes {
		if strings.HasPrefix(origin, s[0]) && strings.HasSuffix(origin, s[1]) &&
			len(origin) > len(s[0])+len(s[1]) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests itself and adds the allow headers to
// actual requests from permitted origins. Requests from other origins pass
// through untouched. With credentials allowed, a "*" origin is echoed back
// since browsers refuse the wildcard in that case.
func CORS(config CORSConfig) Middleware {
	def := DefaultCORSConfig()
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = def.AllowMethods
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = def.AllowHeaders
	}
	if config.MaxAge == 0 {
		config.MaxAge = def.MaxAge
	}

	origins := newOriginMatcher(config.AllowOrigins)
	methods := strings.Join(config.AllowMethods, ", ")
	headers := strings.Join(config.AllowHeaders, ", ")
	expose := strings.Join(config.ExposeHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			var allow string
			switch {
			case origins.match(origin):
				allow = origin
			case origins.any && config.AllowCredentials:
				allow = origin
			case origins.any:
				allow = "*"
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			if allow == "" {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", allow)
			if config.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if preflight {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				if config.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if expose != "" {
				h.Set("Access-Control-Expose-Headers", expose)
			}
			next.ServeHTTP(w, r)
		})
	}
}
