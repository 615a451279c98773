package boot

import (
	"context"
	"fmt"

	"github.com/taoyuan/witty/server"
)

// Phase is one step of the boot sequence.
type Phase func(ctx context.Context, app *server.App) error

// Run runs phases in order and stops at the first error.
func Run(ctx context.Context, app *server.App, phases ...Phase) error {
	for i, phase := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if phase == nil {
			return fmt.Errorf("boot phase %d is nil", i)
		}
		if err := phase(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

// Done wraps phase so that done receives its result.
func Done(phase Phase, done func(error)) Phase {
	return func(ctx context.Context, app *server.App) error {
		err := phase(ctx, app)
		if done != nil {
			done(err)
		}
		return err
	}
}
