package transport

import (
	"context"
	"net/http"
)

// Transport serves an http.Handler.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled or an error occurs.
	Serve(ctx context.Context, handler http.Handler) error

	// Addr returns the transport's address description.
	Addr() string
}
