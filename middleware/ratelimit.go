package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// KeyFunc selects the bucket a request is counted against.
type KeyFunc func(*http.Request) string

// Bucket keys understood by KeyBy.
const (
	KeyGlobal = "global"
	KeyClient = "client"
	KeyPath   = "path"
)

// KeyBy returns the KeyFunc for one of KeyGlobal, KeyClient or KeyPath.
func KeyBy(name string) (KeyFunc, error) {
	switch name {
	case KeyGlobal, "":
		return func(*http.Request) string { return KeyGlobal }, nil
	case KeyClient:
		return ClientIP, nil
	case KeyPath:
		return func(r *http.Request) string { return r.URL.Path }, nil
	}
	return nil, fmt.Errorf("unknown rate limit key %q", name)
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	key    KeyFunc
	window time.Duration
	logger Logger
}

// WithRateLimitKey counts requests per key instead of globally.
func WithRateLimitKey(fn KeyFunc) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.key = fn
	}
}

// WithRateLimitWindow sets the period rate is measured over. Default: one second.
func WithRateLimitWindow(d time.Duration) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.window = d
	}
}

// WithRateLimitLogger sets the logger for rejected requests.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.logger = l
	}
}

// RateLimit admits rate requests per window from each bucket, with up to
// burst at once, and answers the rest with 429 Too Many Requests.
func RateLimit(rate, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		window: time.Second,
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.key == nil {
		cfg.key, _ = KeyBy(KeyGlobal)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: cfg.window,
	})

	// Seconds until one more token is available, rounded up.
	retry := int((cfg.window/time.Duration(max(rate, 1)) + time.Second - 1) / time.Second)
	retryAfter := strconv.Itoa(max(retry, 1))
	limit := strconv.Itoa(rate)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.key(r)
			w.Header().Set("X-RateLimit-Limit", limit)
			if !limiter.Allow(r.Context(), key) {
				cfg.logger.Warn("rate limit exceeded", F("path", r.URL.Path), F("key", key))
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
