package pipeline

import (
	"fmt"

	"github.com/taoyuan/witty/config"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/registry"
)

// Host is the application a plan is installed into.
type Host interface {
	Get(key string) any
	DefineMiddlewarePhases(names []string) error
	MiddlewareFromConfig(factory middleware.Factory, cfg middleware.Config) error
}

// ModuleLoader returns the module value behind a resolved source file.
type ModuleLoader interface {
	Load(sourceFile string) (any, error)
}

// InstallOption configures Install.
type InstallOption func(*installConfig)

type installConfig struct {
	logger middleware.Logger
}

// WithInstallLogger sets the logger for install events.
func WithInstallLogger(l middleware.Logger) InstallOption {
	return func(c *installConfig) {
		c.logger = l
	}
}

// Install declares the plan's phases on host, then loads and registers
// every instruction in order. The first failure stops the install;
// middleware registered before it stays registered.
func Install(host Host, plan *Plan, loader ModuleLoader, opts ...InstallOption) error {
	cfg := &installConfig{logger: middleware.NopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}

	phases := plan.Phases
	if phases == nil {
		phases = []string{}
	}

	cfg.logger.Debug("defining middleware phases", middleware.F("phases", phases))
	if err := host.DefineMiddlewarePhases(phases); err != nil {
		return fmt.Errorf("define middleware phases: %w", err)
	}

	for _, instr := range plan.Middleware {
		cfg.logger.Debug("configuring middleware", middleware.F("middleware", instr.Reference()))

		factory, err := loadFactory(loader, instr)
		if err != nil {
			return &InstructionError{Instruction: instr, Err: err}
		}
		mwConfig, err := MiddlewareConfig(instr.Config)
		if err != nil {
			return &InstructionError{Instruction: instr, Err: err}
		}
		if err := host.MiddlewareFromConfig(factory, mwConfig); err != nil {
			return &InstructionError{Instruction: instr, Err: err}
		}
	}
	return nil
}

// loadFactory loads the instruction's module and, for a fragment, the bound
// export.
func loadFactory(loader ModuleLoader, instr Instruction) (middleware.Factory, error) {
	module, err := loader.Load(instr.SourceFile)
	if err != nil {
		return nil, err
	}

	v := module
	if instr.Fragment != "" {
		var ok bool
		v, ok = registry.Export(module, instr.Fragment)
		if !ok {
			return nil, &FactoryError{SourceFile: instr.SourceFile, Fragment: instr.Fragment}
		}
	}

	factory, ok := middleware.AsFactory(v)
	if !ok {
		return nil, &FactoryError{
			SourceFile: instr.SourceFile,
			Fragment:   instr.Fragment,
			Type:       fmt.Sprintf("%T", v),
		}
	}
	return factory, nil
}

// MiddlewareConfig converts an instruction config into the host's view.
// "enabled" defaults to true; "paths" may be a string or a list of strings.
func MiddlewareConfig(t *config.Tree) (middleware.Config, error) {
	cfg := middleware.Config{Enabled: true}

	if v, ok := t.Get("phase"); ok {
		phase, ok := v.(string)
		if !ok {
			return cfg, fmt.Errorf("phase: expected a string, got %T", v)
		}
		cfg.Phase = phase
	}

	if v, ok := t.Get("params"); ok {
		cfg.Params = config.Plain(v)
	}

	if v, ok := t.Get("enabled"); ok && v != nil {
		enabled, ok := v.(bool)
		if !ok {
			return cfg, fmt.Errorf("enabled: expected a bool, got %T", v)
		}
		cfg.Enabled = enabled
	}

	if v, ok := t.Get("paths"); ok {
		switch p := v.(type) {
		case nil:
		case string:
			cfg.Paths = []string{p}
		case []any:
			for i, item := range p {
				s, ok := item.(string)
				if !ok {
					return cfg, fmt.Errorf("paths[%d]: expected a string, got %T", i, item)
				}
				cfg.Paths = append(cfg.Paths, s)
			}
		default:
			return cfg, fmt.Errorf("paths: expected a string or a list, got %T", v)
		}
	}
	return cfg, nil
}
