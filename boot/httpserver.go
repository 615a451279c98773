package boot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/server"
	"github.com/taoyuan/witty/transport"
)

// Listen defaults, used when neither the address nor the app settings name one.
const (
	DefaultAddress = "0.0.0.0"
	DefaultPort    = 3000
)

// HTTPServer returns a phase that serves the app on addr until ctx is
// canceled. An empty addr is built from the "address" and "port" settings.
func HTTPServer(addr string, opts ...transport.HTTPOption) Phase {
	return func(ctx context.Context, app *server.App) error {
		listen := addr
		if listen == "" {
			var err error
			if listen, err = listenAddr(app); err != nil {
				return err
			}
		}
		httpOpts := append([]transport.HTTPOption{transport.WithHTTPLogger(app.Logger())}, opts...)
		return serve(ctx, app, transport.NewHTTP(listen, httpOpts...))
	}
}

// HTTPServerOn returns a phase that serves the app with t.
func HTTPServerOn(t transport.Transport) Phase {
	return func(ctx context.Context, app *server.App) error {
		return serve(ctx, app, t)
	}
}

func serve(ctx context.Context, app *server.App, t transport.Transport) error {
	app.Logger().Info("starting HTTP server", middleware.F("addr", t.Addr()))
	err := t.Serve(ctx, app)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func listenAddr(app *server.App) (string, error) {
	host := DefaultAddress
	if s, ok := app.Get("address").(string); ok && s != "" {
		host = s
	}

	port := DefaultPort
	switch p := app.Get("port").(type) {
	case nil:
	case int:
		port = p
	case int64:
		port = int(p)
	case float64:
		port = int(p)
	case string:
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid port setting %q", p)
		}
		port = n
	default:
		return "", fmt.Errorf("invalid port setting of type %T", p)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
