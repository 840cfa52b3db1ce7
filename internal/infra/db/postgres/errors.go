package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"alxtravel/internal/domain/shared/fault"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateExclusionViolation   = "23P01"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

var ErrConcurrentUpdate = fault.New(fault.Unavailable, "postgres: concurrent update detected")

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isSerializationFailure(err error) bool {
	code := pgCode(err)
	return code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected
}

// translate gives driver errors a fault kind. Errors that already carry one pass through.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var classified *fault.Error
	if errors.As(err, &classified) {
		return err
	}
	switch code := pgCode(err); {
	case code == sqlStateUniqueViolation, code == sqlStateExclusionViolation:
		return fault.Wrap(fault.Conflict, err, "postgres: "+op)
	case isSerializationFailure(err):
		return fault.Wrap(fault.Unavailable, err, "postgres: "+op+": serialization retries exhausted")
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err):
		return fault.Wrap(fault.Unavailable, err, "postgres: "+op)
	}
	return fault.Wrap(fault.Unknown, err, "postgres: "+op)
}
