package boot

import (
	"context"
	"fmt"

	"github.com/taoyuan/witty/config"
	"github.com/taoyuan/witty/middleware"
	"github.com/taoyuan/witty/server"
)

// ConfigCategory is the configuration category holding app settings.
const ConfigCategory = "config"

// ConfigOption configures the Config phase.
type ConfigOption func(*configPhase)

type configPhase struct {
	env    string
	loader *config.Loader
}

// WithConfigEnv selects the override env. Default: the app's env.
func WithConfigEnv(env string) ConfigOption {
	return func(c *configPhase) {
		c.env = env
	}
}

// WithConfigLoader sets the loader used to read dir.
func WithConfigLoader(l *config.Loader) ConfigOption {
	return func(c *configPhase) {
		c.loader = l
	}
}

// Config returns a phase that loads the "config" category from dir and sets
// every key the app has no value for.
func Config(dir string, opts ...ConfigOption) Phase {
	c := &configPhase{}
	for _, opt := range opts {
		opt(c)
	}

	return func(ctx context.Context, app *server.App) error {
		env := c.env
		if env == "" {
			env = app.Env()
		}
		loader := c.loader
		if loader == nil {
			loader = config.NewLoader(config.WithLogger(app.Logger()))
		}

		tree, err := loader.Load(dir, env, ConfigCategory, config.AppMerger{})
		if err != nil {
			return fmt.Errorf("load app config: %w", err)
		}

		for _, key := range tree.Keys() {
			if app.Get(key) != nil {
				continue
			}
			v, _ := tree.Get(key)
			app.Set(key, config.Plain(v))
			app.Logger().Debug("applied setting", middleware.F("key", key))
		}
		return nil
	}
}
