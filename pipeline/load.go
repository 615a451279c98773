package pipeline

import (
	"errors"
	"fmt"

	"github.com/taoyuan/witty/config"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/resolver"
)

// Category is the configuration category holding middleware.
const Category = "middleware"

// Options configures Load.
type Options struct {
	// Dir holds the middleware config files and is the root references and
	// "$!./" params are resolved against.
	Dir string

	// Env selects the "<category>.<env>" override. Default: host.Get("env").
	Env string

	// Config, when set, is used instead of reading Dir. References are still
	// resolved against Dir.
	Config *config.Tree

	// Modules loads resolved modules. Required.
	Modules ModuleLoader

	// Resolver resolves references. Default: a resolver over Modules (when
	// it is a resolver.FileSystem) layered on the local disk.
	Resolver Resolver

	// Loader reads config files. Default: config.NewLoader with Logger.
	Loader *config.Loader

	Logger middleware.Logger
}

// Load reads the middleware configuration, builds the plan and installs it
// into host.
func Load(host Host, opts Options) error {
	if opts.Modules == nil {
		return errors.New("pipeline: no module loader")
	}
	if opts.Logger == nil {
		opts.Logger = middleware.NopLogger{}
	}

	merged := opts.Config
	if merged == nil {
		env := opts.Env
		if env == "" {
			env, _ = host.Get("env").(string)
		}
		loader := opts.Loader
		if loader == nil {
			loader = config.NewLoader(config.WithLogger(opts.Logger))
		}
		var err error
		merged, err = loader.Load(opts.Dir, env, Category, config.MiddlewareMerger{})
		if err != nil {
			return fmt.Errorf("load middleware config: %w", err)
		}
	}

	res := opts.Resolver
	if res == nil {
		res = DefaultResolver(opts.Modules, opts.Logger)
	}

	plan, err := NewBuilder(res, WithBuilderLogger(opts.Logger)).Build(opts.Dir, merged)
	if err != nil {
		return err
	}
	return Install(host, plan, opts.Modules, WithInstallLogger(opts.Logger))
}

// DefaultResolver returns a strict resolver over modules, when it exposes a
// file system, layered on the local disk.
func DefaultResolver(modules ModuleLoader, logger middleware.Logger) *resolver.Resolver {
	fsys := resolver.OS()
	var opts []resolver.Option
	if logger != nil {
		opts = append(opts, resolver.WithLogger(logger))
	}
	if mfs, ok := modules.(resolver.FileSystem); ok {
		fsys = resolver.Union(mfs, fsys)
	}
	if checker, ok := modules.(resolver.ExportChecker); ok {
		opts = append(opts, resolver.WithExportChecker(checker))
	}
	return resolver.New(fsys, opts...)
}
