// Package middleware provides net/http middleware and the factories that
// build them from configuration.
//
// Middleware follows the standard pattern where each middleware wraps the
// next handler in the chain, allowing pre- and post-processing of requests.
//
// # Basic Usage
//
// Create and compose middleware:
//
//	chain := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(logger),
//	)
//	handler := chain(mux)
//
// # Factories
//
// A configured middleware is produced by a Factory from the "params" of its
// configuration entry. Builtins returns the factories for the middleware of
// this package:
//
//   - logger: request logging
//   - recover: panic recovery (500)
//   - requestId: X-Request-ID injection
//   - timeout: request deadlines (503)
//   - sizeLimit: body size limits (413)
//   - rateLimit: token bucket limiting (429)
//   - cors: cross-origin headers and preflight
//   - auth: API key and bearer token authentication (401)
//   - otel: OpenTelemetry spans and metrics
//   - poweredBy: X-Powered-By header
//   - static: files from a directory
//   - heartbeat: websocket liveness endpoint
//
// AsFactory accepts the other function shapes a module may export:
//
//	func(params any) (middleware.Middleware, error)
//	func(params any) middleware.Middleware
//	func() middleware.Middleware
//	func(next http.Handler) http.Handler
//
// # Default Stacks
//
// The recover, requestId, logger and timeout builtins are also available
// as a stack for hosts that register middleware in code:
//
//	// Recover + RequestID + Logging
//	stack := middleware.DefaultStack(logger)
//
//	// Recover + RequestID + Timeout + Logging
//	stack := middleware.DefaultStackWithTimeout(logger, 30*time.Second)
package middleware
