package middleware

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
)

// OutboxFlush flushes buffered event records after a successful command and
// before the surrounding transaction commits.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
