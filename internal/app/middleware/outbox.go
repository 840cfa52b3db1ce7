package middleware

import (
	"context"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/outbox"
)

// OutboxNotify wakes the relay after every successful command. Stores already wrote the events
// in their own transaction; this only shortens delivery latency.
func OutboxNotify(n outbox.Notifier) CommandMiddleware {
	if n == nil {
		panic("middleware: outbox notifier required")
	}
	return func(next commands.Bus) commands.Bus {
		return DispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			n.Notify()
			return res, nil
		})
	}
}
