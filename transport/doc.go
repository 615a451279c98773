// Package transport serves witty applications over HTTP.
//
// # HTTP Transport
//
// The HTTP transport listens on an address and serves any http.Handler,
// usually a *server.App:
//
//	t := transport.NewHTTP(":3000",
//	    transport.WithReadTimeout(30*time.Second),
//	    transport.WithHealthPath("/health"),
//	)
//	err := t.Serve(ctx, app)
//
// Serve blocks until ctx is canceled. It then stops accepting requests,
// answering new ones with 503, waits for in-flight requests to finish, and
// shuts the server down:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := t.Serve(ctx, app); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
package transport
