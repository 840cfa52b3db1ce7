package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"alxtravel/internal/domain/shared/fault"
)

var ErrConcurrentUpdate = fault.New(fault.Unavailable, "mongo: concurrent update detected")

// translate gives driver errors a fault kind. Errors that already carry one pass through.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var classified *fault.Error
	if errors.As(err, &classified) {
		return err
	}
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fault.Wrap(fault.Conflict, err, "mongo: "+op)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		hasLabel(err, "TransientTransactionError"),
		hasLabel(err, "UnknownTransactionCommitResult"):
		return fault.Wrap(fault.Unavailable, err, "mongo: "+op)
	}
	var server mongo.ServerError
	if errors.As(err, &server) && server.HasErrorCode(112) { // WriteConflict
		return fault.Wrap(fault.Unavailable, err, "mongo: "+op)
	}
	return fault.Wrap(fault.Unknown, err, "mongo: "+op)
}

func hasLabel(err error, label string) bool {
	var labeled interface{ HasErrorLabel(string) bool }
	return errors.As(err, &labeled) && labeled.HasErrorLabel(label)
}
