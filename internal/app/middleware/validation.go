package middleware

import (
	"context"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/queries"
	"alxtravel/internal/domain/shared/fault"
)

// Validator inspects a command or query before it reaches a handler.
type Validator interface {
	Validate(ctx context.Context, message any) error
}

// Validation rejects invalid commands before dispatch. Unclassified validator errors become
// InvalidArgument; errors that already carry a kind keep it.
func Validation(v Validator) CommandMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next commands.Bus) commands.Bus {
		return DispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := rejection(ctx, v, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryValidation(v Validator) QueryMiddleware {
	if v == nil {
		panic("middleware: validator required")
	}
	return func(next queries.Bus) queries.Bus {
		return AskFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := rejection(ctx, v, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}

func rejection(ctx context.Context, v Validator, message any) error {
	err := v.Validate(ctx, message)
	if err == nil || fault.KindOf(err) != fault.Unknown {
		return err
	}
	return fault.Wrap(fault.InvalidArgument, err, "")
}
