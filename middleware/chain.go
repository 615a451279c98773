package middleware

import "net/http"

// Middleware wraps a handler with additional behavior.
type Middleware func(next http.Handler) http.Handler

// Chain composes multiple middleware into a single middleware.
// Middleware are applied in order, so Chain(m1, m2, m3) results in
// m1 wrapping m2 wrapping m3 wrapping the final handler.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		// Apply middleware in reverse order so they execute in order
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// MiddlewareChain provides a fluent API for building middleware chains.
type MiddlewareChain struct {
	middlewares []Middleware
}

// Use creates a new middleware chain starting with the given middleware.
func Use(middlewares ...Middleware) *MiddlewareChain {
	return &MiddlewareChain{
		middlewares: middlewares,
	}
}

// Append adds middleware to the chain and returns the updated chain.
func (c *MiddlewareChain) Append(middlewares ...Middleware) *MiddlewareChain {
	c.middlewares = append(c.middlewares, middlewares...)
	return c
}

// Len returns the number of middleware in the chain.
func (c *MiddlewareChain) Len() int {
	return len(c.middlewares)
}

// Then applies the middleware chain to a handler and returns the wrapped handler.
func (c *MiddlewareChain) Then(handler http.Handler) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	return Chain(c.middlewares...)(handler)
}

// ThenFunc applies the middleware chain to a handler function and returns the wrapped handler.
func (c *MiddlewareChain) ThenFunc(fn http.HandlerFunc) http.Handler {
	return c.Then(fn)
}
