// Package server provides the witty application host.
package server

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/taoyuan/witty/middleware"
)

// EnvVar names the environment variable the default env is read from.
const EnvVar = "WITTY_ENV"

// DefaultEnv is used when neither the "env" setting nor WITTY_ENV is set.
const DefaultEnv = "development"

// DefaultPhases are the middleware phases every App starts with.
var DefaultPhases = []string{"initial", "session", "auth", "parse", "routes", "files", "final"}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l middleware.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithSetting sets an initial setting.
func WithSetting(key string, value any) Option {
	return func(a *App) {
		a.settings[key] = value
	}
}

// App is the application host: settings, phased middleware and a router.
// Configuration methods and serving are safe for concurrent use.
type App struct {
	mu sync.RWMutex

	settings map[string]any
	phases   []string
	stacks   map[string][]mount
	router   *http.ServeMux
	logger   middleware.Logger

	// handler caches the composed pipeline; nil when stale.
	handler http.Handler
}

// New creates an App with the default phases.
func New(opts ...Option) *App {
	a := &App{
		settings: make(map[string]any),
		phases:   append([]string(nil), DefaultPhases...),
		stacks:   make(map[string][]mount),
		router:   http.NewServeMux(),
		logger:   middleware.NopLogger{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if _, ok := a.settings["env"]; !ok {
		env := os.Getenv(EnvVar)
		if env == "" {
			env = DefaultEnv
		}
		a.settings["env"] = env
	}
	return a
}

// Get returns the setting for key, or nil.
func (a *App) Get(key string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings[key]
}

// Set stores a setting.
func (a *App) Set(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings[key] = value
}

// Settings returns the setting keys in sorted order.
func (a *App) Settings() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	keys := make([]string, 0, len(a.settings))
	for k := range a.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Env returns the "env" setting.
func (a *App) Env() string {
	s, _ := a.Get("env").(string)
	if s == "" {
		return DefaultEnv
	}
	return s
}

// Logger returns the application logger.
func (a *App) Logger() middleware.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.logger
}

// Phases returns the middleware phases in order.
func (a *App) Phases() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.phases...)
}

// DefineMiddlewarePhases merges names into the phase list. Known names keep
// their position and must appear in the same relative order; new names are
// inserted after the preceding known name.
func (a *App) DefineMiddlewarePhases(names []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	merged, err := mergePhases(a.phases, names)
	if err != nil {
		return err
	}
	a.phases = merged
	a.handler = nil
	return nil
}

// Middleware adds mw to phase. Phase may carry a ":before" or ":after"
// qualifier. With paths, mw only runs for requests below one of them.
func (a *App) Middleware(phase string, paths []string, mw middleware.Middleware) error {
	if mw == nil {
		return fmt.Errorf("nil middleware for phase %q", phase)
	}
	base, _, err := splitPhase(phase)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if indexOf(a.phases, base) < 0 {
		return &PhaseError{Phase: phase}
	}
	a.stacks[phase] = append(a.stacks[phase], mount{paths: cleanPaths(paths), mw: mw})
	a.handler = nil
	return nil
}

// MiddlewareFromConfig builds middleware with factory and adds it as cfg
// describes. Disabled configs are skipped.
func (a *App) MiddlewareFromConfig(factory middleware.Factory, cfg middleware.Config) error {
	logger := a.Logger()
	if !cfg.Enabled {
		logger.Debug("middleware disabled", middleware.F("phase", cfg.Phase))
		return nil
	}
	if factory == nil {
		return fmt.Errorf("nil middleware factory for phase %q", cfg.Phase)
	}

	mw, err := factory(cfg.Params)
	if err != nil {
		return fmt.Errorf("create middleware: %w", err)
	}
	if mw == nil {
		return fmt.Errorf("middleware factory for phase %q returned nil", cfg.Phase)
	}
	return a.Middleware(cfg.Phase, cfg.Paths, mw)
}

// Handle registers a route on the application router.
func (a *App) Handle(pattern string, handler http.Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.router.Handle(pattern, handler)
}

// HandleFunc registers a route function on the application router.
func (a *App) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	a.Handle(pattern, http.HandlerFunc(handler))
}

// Handler returns the composed pipeline: every phase in order, each as
// its ":before", main and ":after" stacks, around the router.
func (a *App) Handler() http.Handler {
	a.mu.RLock()
	h := a.handler
	a.mu.RUnlock()
	if h != nil {
		return h
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handler == nil {
		a.handler = a.compose()
	}
	return a.handler
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

func (a *App) compose() http.Handler {
	var chain []middleware.Middleware
	for _, phase := range a.phases {
		for _, slot := range []string{phase + ":before", phase, phase + ":after"} {
			for _, m := range a.stacks[slot] {
				chain = append(chain, m.middleware())
			}
		}
	}
	return middleware.Chain(chain...)(a.router)
}
