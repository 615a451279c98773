// Package witty assembles net/http applications from configuration files.
//
// An application directory holds a config.json with app settings and a
// middleware.json describing the middleware pipeline by phase:
//
//	{
//	  "initial": {
//	    "witty#requestId": {},
//	    "witty#logger": {}
//	  },
//	  "routes:before": {
//	    "witty#auth": {"params": {"keys": {"secret": "admin"}}, "paths": "/api"}
//	  },
//	  "files": {
//	    "witty#static": {"params": "$!./public"}
//	  }
//	}
//
// Fragments named middleware.local.json and middleware.<env>.json may
// override values declared in the base file. References name modules
// mounted in a registry; the built-in middleware live under "witty".
//
// Basic usage:
//
//	app := witty.New(witty.WithLogger(logger))
//	app.HandleFunc("/api/items", listItems)
//
//	err := witty.Boot(ctx, app, witty.BootOptions{Dir: "."}, witty.HTTPServer(""))
package witty

import (
	"context"
	"fmt"
	"path"

	"github.com/taoyuan/witty/boot"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/pipeline"
	"github.com/taoyuan/witty/registry"
	"github.com/taoyuan/witty/server"
)

// Module is the id the built-in middleware are mounted under.
const Module = "witty"

// ModuleRoot is the registry path of the built-in module.
const ModuleRoot = "/witty_modules/" + Module

// Re-export core types for convenience

// App is the application host.
type App = server.App

// Option configures an App.
type Option = server.Option

// Phase is a boot phase.
type Phase = boot.Phase

// Middleware types
type Middleware = middleware.Middleware
type Factory = middleware.Factory
type MiddlewareConfig = middleware.Config
type Logger = middleware.Logger
type LogField = middleware.Field

// Registry types
type Registry = registry.Registry
type Exports = registry.Exports

// App options.
var (
	WithLogger  = server.WithLogger
	WithSetting = server.WithSetting
)

// Boot phases.
var (
	Run          = boot.Run
	Config       = boot.Config
	HTTPServer   = boot.HTTPServer
	HTTPServerOn = boot.HTTPServerOn
)

// New creates an application.
func New(opts ...Option) *App {
	return server.New(opts...)
}

// NewRegistry returns a registry with the built-in middleware mounted.
func NewRegistry(logger Logger) (*Registry, error) {
	reg := registry.New()
	if err := MountBuiltins(reg, logger); err != nil {
		return nil, err
	}
	return reg, nil
}

// MountBuiltins mounts the built-in middleware into reg, so that both
// "witty#<name>" and "witty/middleware/<name>" resolve to them.
func MountBuiltins(reg *Registry, logger Logger) error {
	if logger == nil {
		logger = middleware.NopLogger{}
	}
	builtins := middleware.Builtins(logger)

	exports := make(Exports, len(builtins))
	for name, factory := range builtins {
		exports[name] = factory
		if err := reg.Mount(path.Join(ModuleRoot, "middleware", name), factory); err != nil {
			return err
		}
	}
	return reg.Mount(path.Join(ModuleRoot, "index"), exports)
}

// BootOptions configures Boot.
type BootOptions struct {
	// Dir holds the config and middleware files. Default: ".".
	Dir string

	// Modules holds application middleware. The built-ins are mounted into
	// it unless already present. Default: a new registry.
	Modules *Registry
}

// Boot loads the app settings and middleware pipeline from opts.Dir, then
// runs the extra phases, typically HTTPServer.
func Boot(ctx context.Context, app *App, opts BootOptions, extra ...Phase) error {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	reg := opts.Modules
	if reg == nil {
		reg = registry.New()
	}
	if _, err := reg.Load(ModuleRoot); err != nil {
		if err := MountBuiltins(reg, app.Logger()); err != nil {
			return fmt.Errorf("mount built-in middleware: %w", err)
		}
	}

	phases := append([]Phase{
		boot.Config(dir),
		boot.Middleware(pipeline.Options{Dir: dir, Modules: reg}),
	}, extra...)
	return boot.Run(ctx, app, phases...)
}
