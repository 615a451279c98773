package middleware

import (
	"fmt"
	"time"
)

// Builtins returns the configurable factories for the middleware in this
// package, keyed by the names they are exported under.
func Builtins(logger Logger) map[string]Factory {
	if logger == nil {
		logger = NopLogger{}
	}
	return map[string]Factory{
		"logger":    loggerFactory(logger),
		"recover":   Handler(RecoverWithLogger(logger)),
		"requestId": Handler(RequestID()),
		"timeout":   timeoutFactory,
		"sizeLimit": sizeLimitFactory(logger),
		"rateLimit": rateLimitFactory(logger),
		"cors":      corsFactory,
		"auth":      authFactory(logger),
		"otel":      otelFactory,
		"poweredBy": poweredByFactory,
		"static":    staticFactory,
		"heartbeat": heartbeatFactory(logger),
	}
}

// loggerFactory accepts {"level": "...", "format": "..."}; without params
// the host logger is used.
func loggerFactory(logger Logger) Factory {
	return func(params any) (Middleware, error) {
		var p struct {
			Level  string `json:"level"`
			Format string `json:"format"`
		}
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Level == "" && p.Format == "" {
			return Logging(logger), nil
		}
		return Logging(NewSlogLogger(logWriter, p.Level, p.Format)), nil
	}
}

// timeoutFactory accepts a duration ("5s", or a number of milliseconds) or
// {"duration": ...}.
func timeoutFactory(params any) (Middleware, error) {
	if m, ok := params.(map[string]any); ok {
		params = m["duration"]
	}
	d, err := Duration(params)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("timeout: duration must be positive")
	}
	return Timeout(d), nil
}

// sizeLimitFactory accepts a byte count or {"limit": bytes}. Default: 1 MB.
func sizeLimitFactory(logger Logger) Factory {
	return func(params any) (Middleware, error) {
		p := struct {
			Limit int64 `json:"limit"`
		}{Limit: MB}
		switch v := params.(type) {
		case int:
			p.Limit = int64(v)
		case float64:
			p.Limit = int64(v)
		default:
			if err := DecodeParams(params, &p); err != nil {
				return nil, fmt.Errorf("sizeLimit: %w", err)
			}
		}
		return SizeLimit(p.Limit, WithSizeLimitLogger(logger)), nil
	}
}

// rateLimitFactory accepts {"rate": n, "burst": n, "by": "global|client|path"}.
func rateLimitFactory(logger Logger) Factory {
	return func(params any) (Middleware, error) {
		p := struct {
			Rate  int    `json:"rate"`
			Burst int    `json:"burst"`
			By    string `json:"by"`
		}{Rate: 10, Burst: 20, By: "global"}
		if err := DecodeParams(params, &p); err != nil {
			return nil, fmt.Errorf("rateLimit: %w", err)
		}
		if p.Rate <= 0 || p.Burst <= 0 {
			return nil, fmt.Errorf("rateLimit: rate and burst must be positive")
		}
		key, err := KeyBy(p.By)
		if err != nil {
			return nil, fmt.Errorf("rateLimit: %w", err)
		}
		return RateLimit(p.Rate, p.Burst, WithRateLimitKey(key), WithRateLimitLogger(logger)), nil
	}
}

// corsFactory accepts CORSConfig fields; without params DefaultCORSConfig applies.
func corsFactory(params any) (Middleware, error) {
	cfg := DefaultCORSConfig()
	if err := DecodeParams(params, &cfg); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	return CORS(cfg), nil
}

// authFactory accepts {"header": "X-API-Key", "keys": {key: name},
// "tokens": {token: name}, "skipPaths": [...], "realm": "..."}.
func authFactory(logger Logger) Factory {
	return func(params any) (Middleware, error) {
		p := struct {
			Header    string            `json:"header"`
			Keys      map[string]string `json:"keys"`
			Tokens    map[string]string `json:"tokens"`
			SkipPaths []string          `json:"skipPaths"`
			Realm     string            `json:"realm"`
		}{Header: "X-API-Key"}
		if err := DecodeParams(params, &p); err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		if len(p.Keys) == 0 && len(p.Tokens) == 0 {
			return nil, fmt.Errorf("auth: no keys or tokens configured")
		}

		var authenticators []Authenticator
		if len(p.Keys) > 0 {
			authenticators = append(authenticators, HeaderKey(p.Header, Secrets(p.Keys)))
		}
		if len(p.Tokens) > 0 {
			authenticators = append(authenticators, Bearer(Secrets(p.Tokens)))
		}

		opts := []AuthOption{WithAuthLogger(logger), WithAuthSkipPaths(p.SkipPaths...)}
		if p.Realm != "" {
			opts = append(opts, WithAuthRealm(p.Realm))
		}
		return Auth(FirstOf(authenticators...), opts...), nil
	}
}

// otelFactory accepts {"serviceName": "...", "skipPaths": [...]} and uses
// the global tracer and meter providers.
func otelFactory(params any) (Middleware, error) {
	var p struct {
		ServiceName string   `json:"serviceName"`
		SkipPaths   []string `json:"skipPaths"`
	}
	if err := DecodeParams(params, &p); err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	opts := []OTelOption{WithOTelSkipPaths(p.SkipPaths...)}
	if p.ServiceName != "" {
		opts = append(opts, WithOTelServiceName(p.ServiceName))
	}
	return OTel(opts...), nil
}

// poweredByFactory accepts the header value. Default: Witty.
func poweredByFactory(params any) (Middleware, error) {
	name := "Witty"
	if args := Args(params); len(args) > 0 {
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("poweredBy: expected a string, got %T", args[0])
		}
		name = s
	}
	return PoweredBy(name), nil
}

// staticFactory accepts the directory to serve.
func staticFactory(params any) (Middleware, error) {
	args := Args(params)
	if len(args) == 0 {
		return nil, fmt.Errorf("static: root directory is required")
	}
	root, ok := args[0].(string)
	if !ok || root == "" {
		return nil, fmt.Errorf("static: expected a directory, got %v", args[0])
	}
	return Static(root), nil
}

// heartbeatFactory accepts {"path": "/heartbeat", "interval": "30s"}.
func heartbeatFactory(logger Logger) Factory {
	return func(params any) (Middleware, error) {
		opts := []HeartbeatOption{WithHeartbeatLogger(logger)}
		if m, ok := params.(map[string]any); ok {
			if p, ok := m["path"].(string); ok && p != "" {
				opts = append(opts, WithHeartbeatPath(p))
			}
			if v, ok := m["interval"]; ok {
				d, err := Duration(v)
				if err != nil {
					return nil, fmt.Errorf("heartbeat: %w", err)
				}
				opts = append(opts, WithHeartbeatInterval(d))
			}
		} else if params != nil {
			return nil, fmt.Errorf("heartbeat: expected an object, got %T", params)
		}
		return Heartbeat(opts...), nil
	}
}

// Duration converts a configured duration. Strings use time.ParseDuration;
// numbers are milliseconds.
func Duration(v any) (time.Duration, error) {
	switch d := v.(type) {
	case string:
		return time.ParseDuration(d)
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	case nil:
		return 0, fmt.Errorf("missing duration")
	}
	return 0, fmt.Errorf("invalid duration %v", v)
}
