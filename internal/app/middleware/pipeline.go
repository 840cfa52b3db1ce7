package middleware

import (
	"context"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/queries"
)

// CommandMiddleware decorates a command bus.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates a query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so the first middleware sees each command first. Nil entries are skipped.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	return chain(base, mws)
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	return chain(base, mws)
}

func chain[B any, M ~func(B) B](base B, mws []M) B {
	for i := len(mws) - 1; i >= 0; i-- {
		if wrap := (func(B) B)(mws[i]); wrap != nil {
			base = wrap(base)
		}
	}
	return base
}

// DispatchFunc lets a plain function act as a commands.Bus.
type DispatchFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f DispatchFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

// AskFunc lets a plain function act as a queries.Bus.
type AskFunc func(ctx context.Context, q queries.Query) (any, error)

func (f AskFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}
