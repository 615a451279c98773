package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// Identity is the principal a request was authenticated as.
type Identity struct {
	ID   string
	Name string
	// Source names the authenticator that produced the identity
	// ("header" or "bearer").
	Source string
}

type identityKey struct{}

// IdentityFromContext returns the identity stored by Auth, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// ContextWithIdentity returns a copy of ctx carrying id.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Authenticator inspects a request. A nil identity with a nil error means
// the request carries no credentials it accepts.
type Authenticator func(r *http.Request) (*Identity, error)

// Lookup maps a presented secret to an identity, or nil when unknown.
type Lookup func(secret string) *Identity

// Secrets returns a Lookup over secret -> identity name pairs. Every entry
// is compared in constant time.
func Secrets(names map[string]string) Lookup {
	type entry struct {
		secret []byte
		name   string
	}
	entries := make([]entry, 0, len(names))
	for s, n := range names {
		entries = append(entries, entry{secret: []byte(s), name: n})
	}
	return func(secret string) *Identity {
		var found *Identity
		presented := []byte(secret)
		for _, e := range entries {
			if subtle.ConstantTimeCompare(presented, e.secret) == 1 {
				found = &Identity{ID: e.name, Name: e.name}
			}
		}
		return found
	}
}

// HeaderKey authenticates the value of header, such as an X-API-Key.
func HeaderKey(header string, lookup Lookup) Authenticator {
	return func(r *http.Request) (*Identity, error) {
		return identify(r.Header.Get(header), "header", lookup), nil
	}
}

// Bearer authenticates an "Authorization: Bearer <token>" header.
func Bearer(lookup Lookup) Authenticator {
	return func(r *http.Request) (*Identity, error) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, nil
		}
		return identify(strings.TrimSpace(token), "bearer", lookup), nil
	}
}

func identify(secret, source string, lookup Lookup) *Identity {
	if secret == "" {
		return nil
	}
	id := lookup(secret)
	if id != nil && id.Source == "" {
		id.Source = source
	}
	return id
}

// FirstOf tries each authenticator in turn and returns the first identity.
// An error stops the search.
func FirstOf(authenticators ...Authenticator) Authenticator {
	return func(r *http.Request) (*Identity, error) {
		for _, a := range authenticators {
			id, err := a(r)
			if err != nil || id != nil {
				return id, err
			}
		}
		return nil, nil
	}
}

// AuthOption configures Auth.
type AuthOption func(*authConfig)

type authConfig struct {
	logger  Logger
	public  []string
	realm   string
	message string
}

// WithAuthLogger sets the logger for rejected and accepted requests.
func WithAuthLogger(l Logger) AuthOption {
	return func(c *authConfig) {
		c.logger = l
	}
}

// WithAuthSkipPaths lets requests under the given path prefixes through
// without credentials.
func WithAuthSkipPaths(prefixes ...string) AuthOption {
	return func(c *authConfig) {
		c.public = append(c.public, prefixes...)
	}
}

// WithAuthRealm sets the realm of the WWW-Authenticate challenge.
func WithAuthRealm(realm string) AuthOption {
	return func(c *authConfig) {
		c.realm = realm
	}
}

// WithAuthErrorMessage sets the body of 401 responses.
func WithAuthErrorMessage(msg string) AuthOption {
	return func(c *authConfig) {
		c.message = msg
	}
}

// Auth rejects requests the authenticator does not identify with 401 and
// stores the identity of accepted ones in the request context.
func Auth(authenticate Authenticator, opts ...AuthOption) Middleware {
	cfg := &authConfig{
		logger:  NopLogger{},
		realm:   "witty",
		message: "authentication required",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	challenge := `Bearer realm="` + cfg.realm + `"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id, err := authenticate(r)
			if err != nil || id == nil {
				fields := []Field{F("path", r.URL.Path)}
				if err != nil {
					fields = append(fields, F("error", err.Error()))
				}
				cfg.logger.Warn("request not authenticated", fields...)
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, cfg.message, http.StatusUnauthorized)
				return
			}

			cfg.logger.Debug("request authenticated", F("path", r.URL.Path), F("identity", id.ID))
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

func (c *authConfig) isPublic(path string) bool {
	for _, p := range c.public {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
