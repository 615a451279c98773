package boot

import (
	"context"

	"github.com/taoyuan/witty/pipeline"
	"github.com/taoyuan/witty/server"
)

// Middleware returns a phase that loads the middleware configuration and
// installs it into the app. opts.Logger defaults to the app's logger.
func Middleware(opts pipeline.Options) Phase {
	return func(ctx context.Context, app *server.App) error {
		if opts.Logger == nil {
			opts.Logger = app.Logger()
		}
		return pipeline.Load(app, opts)
	}
}
