// Package server provides the application host middleware pipelines are
// installed into.
//
// # App
//
// An App holds settings, an ordered list of middleware phases and a router.
// Every App starts with the phases
//
//	initial, session, auth, parse, routes, files, final
//
// and each phase has ":before" and ":after" slots:
//
//	app := server.New(server.WithLogger(logger))
//	app.Middleware("initial", nil, middleware.RequestID())
//	app.Middleware("routes:before", []string{"/api"}, middleware.Auth(authn))
//	app.HandleFunc("/api/items", listItems)
//
//	http.ListenAndServe(":3000", app)
//
// # Phases
//
// DefineMiddlewarePhases merges a phase list into the current one. Phases
// already defined must appear in the same relative order; new phases are
// inserted after the phase that precedes them in the list:
//
//	app.DefineMiddlewarePhases([]string{"auth", "metrics", "routes"})
//	// initial, session, auth, metrics, parse, routes, files, final
//
// Defining ["routes", "initial"] fails with an ordering conflict.
//
// # Composition
//
// Handler composes the pipeline once and caches it until the phases or
// middleware change. Requests pass through the phases in order, and within
// a slot through middleware in registration order, before reaching the
// router. Middleware mounted on paths only runs for requests whose path
// equals a mount path or lies below it.
package server
