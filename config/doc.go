// Package config loads layered configuration files and merges them under a
// closed schema.
//
// A configuration category such as "config" or "middleware" lives in a
// directory as a base file plus optional overrides:
//
//	middleware.json              base, declares every key
//	middleware.local.json        machine-local override
//	middleware.production.json   environment override
//
// Overrides may only change what the base declares: leaves keep their kind,
// sequences keep their length and are merged element by element. Two merge
// strategies implement Merger:
//
//   - AppMerger fills keys missing from the target
//   - MiddlewareMerger additionally rejects phases and middleware names the
//     base never declared
//
// Files may be JSON, YAML or HCL. Decoded trees keep the key order of the
// source document, which the middleware pipeline relies on for phase order.
//
//	tree, err := config.NewLoader().Load("server", "production", "middleware", config.MiddlewareMerger{})
package config
