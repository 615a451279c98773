package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taoyuan/witty/middleware"
)

var _ Transport = (*HTTP)(nil)

// HTTP serves a handler over HTTP with graceful shutdown.
type HTTP struct {
	addr            string
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	drainDelay      time.Duration
	healthPath      string
	logger          middleware.Logger

	mu         sync.RWMutex
	listenAddr string
	server     *http.Server
	drainer    *Drainer

	ready     chan struct{}
	readyOnce sync.Once
}

// HTTPOption configures the HTTP transport.
type HTTPOption func(*HTTP)

// WithReadTimeout sets the read timeout for HTTP requests.
func WithReadTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.readTimeout = d
	}
}

// WithWriteTimeout sets the write timeout for HTTP responses.
func WithWriteTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.writeTimeout = d
	}
}

// WithHealthPath answers GET requests to path with {"status":"ok"} ahead of
// the served handler. Empty disables it.
func WithHealthPath(path string) HTTPOption {
	return func(h *HTTP) {
		h.healthPath = path
	}
}

// WithHTTPLogger sets the logger for listener events.
func WithHTTPLogger(l middleware.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = l
	}
}

// NewHTTP creates a new HTTP transport.
func NewHTTP(addr string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		addr:            addr,
		readTimeout:     30 * time.Second,
		writeTimeout:    30 * time.Second,
		shutdownTimeout: 5 * time.Second,
		logger:          middleware.NopLogger{},
		ready:           make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Addr returns the configured address.
func (h *HTTP) Addr() string {
	return h.addr
}

// ListenAddr returns the actual address the server is listening on.
func (h *HTTP) ListenAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.listenAddr
}

// Draining reports whether Serve has stopped admitting requests.
func (h *HTTP) Draining() bool {
	h.mu.RLock()
	dr := h.drainer
	h.mu.RUnlock()
	return dr != nil && dr.Draining()
}

// Ready is closed once the listener is bound.
func (h *HTTP) Ready() <-chan struct{} {
	return h.ready
}

// Serve listens on the configured address and serves handler until ctx is
// canceled, then drains in-flight requests and shuts the server down.
func (h *HTTP) Serve(ctx context.Context, handler http.Handler) error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	dr := NewDrainer(WithDrainDelay(h.drainDelay), WithDrainLogger(h.logger))
	srv := &http.Server{
		Handler:      dr.Middleware()(h.createHandler(handler)),
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
	}

	h.mu.Lock()
	h.listenAddr = listener.Addr().String()
	h.server = srv
	h.drainer = dr
	h.mu.Unlock()

	h.logger.Info("HTTP server listening", middleware.F("addr", listener.Addr().String()))
	h.readyOnce.Do(func() { close(h.ready) })

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout+h.drainDelay)
		defer cancel()
		if err := dr.Drain(shutdownCtx); err != nil {
			h.logger.Warn("in-flight requests did not drain",
				middleware.F("active", dr.Active()),
				middleware.F("error", err.Error()),
			)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// createHandler adds the health endpoint in front of handler.
func (h *HTTP) createHandler(handler http.Handler) http.Handler {
	if h.healthPath == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == h.healthPath && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			return
		}
		handler.ServeHTTP(w, r)
	})
}
