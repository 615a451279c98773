package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/taoyuan/witty/middleware"
)

// Drainer counts requests in flight through the served pipeline and, once
// draining starts, turns new ones away until the last active request leaves.
type Drainer struct {
	delay  time.Duration
	logger middleware.Logger

	mu       sync.Mutex
	active   int
	draining bool
	idle     chan struct{}
	idleOnce sync.Once
}

// DrainOption configures a Drainer.
type DrainOption func(*Drainer)

// WithDrainDelay keeps accepting requests for d after Drain is called, so
// that load balancers can take the listener out of rotation first.
func WithDrainDelay(d time.Duration) DrainOption {
	return func(dr *Drainer) {
		dr.delay = d
	}
}

// WithDrainLogger sets the logger for drain events.
func WithDrainLogger(l middleware.Logger) DrainOption {
	return func(dr *Drainer) {
		dr.logger = l
	}
}

// NewDrainer creates a Drainer that accepts requests.
func NewDrainer(opts ...DrainOption) *Drainer {
	dr := &Drainer{
		logger: middleware.NopLogger{},
		idle:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(dr)
	}
	return dr
}

// Draining reports whether new requests are being rejected.
func (dr *Drainer) Draining() bool {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.draining
}

// Active returns the number of requests in flight.
func (dr *Drainer) Active() int {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	return dr.active
}

// Enter admits a request. It returns false once draining has started.
func (dr *Drainer) Enter() bool {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if dr.draining {
		return false
	}
	dr.active++
	return true
}

// Leave marks an admitted request as finished.
func (dr *Drainer) Leave() {
	dr.mu.Lock()
	defer dr.mu.Unlock()
	if dr.active > 0 {
		dr.active--
	}
	dr.signalIdle()
}

// signalIdle closes the idle channel when draining with nothing in flight.
// Callers hold mu.
func (dr *Drainer) signalIdle() {
	if dr.draining && dr.active == 0 {
		dr.idleOnce.Do(func() { close(dr.idle) })
	}
}

// Middleware admits each request through the drainer. Rejected requests get
// 503 Service Unavailable with "Connection: close".
func (dr *Drainer) Middleware() middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !dr.Enter() {
				w.Header().Set("Connection", "close")
				http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
				return
			}
			defer dr.Leave()
			next.ServeHTTP(w, r)
		})
	}
}

// Drain waits out the drain delay, stops admitting requests and blocks until
// the active ones finish or ctx is done.
func (dr *Drainer) Drain(ctx context.Context) error {
	if dr.delay > 0 {
		t := time.NewTimer(dr.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	dr.mu.Lock()
	dr.draining = true
	active := dr.active
	dr.signalIdle()
	dr.mu.Unlock()

	dr.logger.Debug("draining requests", middleware.F("active", active))

	select {
	case <-dr.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once draining has started and no request is in flight.
func (dr *Drainer) Done() <-chan struct{} {
	return dr.idle
}

// WithShutdownTimeout bounds how long Serve waits for requests to drain and
// for the server to close.
func WithShutdownTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.shutdownTimeout = d
	}
}

// WithShutdownDrainDelay sets the drain delay used by Serve.
func WithShutdownDrainDelay(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.drainDelay = d
	}
}
