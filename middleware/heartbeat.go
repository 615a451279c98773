package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HeartbeatOption configures the heartbeat endpoint.
type HeartbeatOption func(*heartbeatConfig)

type heartbeatConfig struct {
	path     string
	interval time.Duration
	upgrader websocket.Upgrader
	logger   Logger
}

// WithHeartbeatPath sets the URL path of the endpoint. Default: /heartbeat.
func WithHeartbeatPath(p string) HeartbeatOption {
	return func(c *heartbeatConfig) {
		c.path = p
	}
}

// WithHeartbeatInterval sets how often the server pings connected clients.
// Zero disables server pings.
func WithHeartbeatInterval(d time.Duration) HeartbeatOption {
	return func(c *heartbeatConfig) {
		c.interval = d
	}
}

// WithHeartbeatCheckOrigin sets the origin check function for upgrades.
func WithHeartbeatCheckOrigin(fn func(r *http.Request) bool) HeartbeatOption {
	return func(c *heartbeatConfig) {
		c.upgrader.CheckOrigin = fn
	}
}

// WithHeartbeatLogger sets the logger for connection events.
func WithHeartbeatLogger(l Logger) HeartbeatOption {
	return func(c *heartbeatConfig) {
		c.logger = l
	}
}

// Heartbeat returns middleware that serves a websocket liveness endpoint.
// A text message "ping" is answered with "pong"; websocket ping frames get
// pong frames. Other requests go to the next handler.
func Heartbeat(opts ...HeartbeatOption) Middleware {
	cfg := &heartbeatConfig{
		path:     "/heartbeat",
		interval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // Allow all origins by default
		},
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != cfg.path || !websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			conn, err := cfg.upgrader.Upgrade(w, r, nil)
			if err != nil {
				cfg.logger.Warn("heartbeat upgrade failed", F("error", err.Error()))
				return
			}
			serveHeartbeat(conn, cfg)
		})
	}
}

func serveHeartbeat(conn *websocket.Conn, cfg *heartbeatConfig) {
	var mu sync.Mutex
	done := make(chan struct{})
	defer func() {
		close(done)
		_ = conn.Close()
	}()

	if cfg.interval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.interval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					mu.Lock()
					err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.interval))
					mu.Unlock()
					if err != nil {
						return
					}
				}
			}
		}()
	}

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cfg.logger.Debug("heartbeat connection closed", F("error", err.Error()))
			}
			return
		}
		if kind != websocket.TextMessage || string(message) != "ping" {
			continue
		}
		mu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, []byte("pong"))
		mu.Unlock()
		if err != nil {
			return
		}
	}
}
