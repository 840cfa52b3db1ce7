package middleware

import (
	"context"
	"log/slog"
	"time"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/queries"
	"alxtravel/internal/domain/shared/fault"
)

func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return DispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return AskFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	attrs := []any{
		slog.String(kind, key),
		slog.Duration("duration", time.Since(start)),
	}
	if err == nil {
		logger.DebugContext(ctx, kind+" handled", attrs...)
		return
	}
	k := fault.KindOf(err)
	attrs = append(attrs, slog.String("kind", k.String()), slog.Any("err", err))
	if k == fault.Unknown || k == fault.Unavailable {
		logger.ErrorContext(ctx, kind+" failed", attrs...)
		return
	}
	logger.InfoContext(ctx, kind+" rejected", attrs...)
}
