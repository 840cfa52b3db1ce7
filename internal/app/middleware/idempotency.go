package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/domain/shared/fault"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
// Keys are private to IdempotencyScope, and a key replays only for a command with the same Fingerprint.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	IdempotencyScope() string
	Fingerprint() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key         string
	Command     string
	Fingerprint string
	Payload    []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

// IdempotencyStore persists outcomes per key. Save reports ErrIdempotencyKeyTaken when another
// request recorded the key first.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

	ErrIdempotencyKeyTaken = errors.New("middleware: idempotency key already recorded")
	ErrIdempotencyMismatch = fault.New(fault.InvalidArgument, "middleware: idempotency key reused for a different request")
)

// Idempotency replays the recorded outcome of a key. Replayed errors keep their fault kind;
// retryable failures are never recorded so the caller can try again with the same key.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return DispatchFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return next.Dispatch(ctx, cmd)
			}
			if idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := scopedKey(idCmd)
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, fault.Wrap(fault.Unavailable, err, "middleware: idempotency lookup")
			}
			if found {
				return replay(rec, idCmd, codec)
			}
			result, err := next.Dispatch(ctx, cmd)
			if err != nil && fault.KindOf(err).Retryable() {
				return nil, err
			}
			record := IdempotencyRecord{
				Key:         key,
				Command:     cmd.Key(),
				Fingerprint: idCmd.Fingerprint(),
				OccurredAt:  time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				record.ErrorKind = fault.KindOf(err).String()
				if saveErr := store.Save(ctx, record); saveErr != nil && !errors.Is(saveErr, ErrIdempotencyKeyTaken) {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				if errors.Is(saveErr, ErrIdempotencyKeyTaken) {
					// A concurrent request with the same key finished first; answer with its outcome.
					if winner, ok, getErr := store.Get(ctx, key); getErr == nil && ok {
						return replay(winner, idCmd, codec)
					}
					return result, nil
				}
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Command != "" && rec.Command != cmd.Key() {
		return nil, ErrIdempotencyMismatch
	}
	if rec.Fingerprint != cmd.Fingerprint() {
		return nil, ErrIdempotencyMismatch
	}
	if rec.Error != "" {
		return nil, fault.New(fault.ParseKind(rec.ErrorKind), rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return normalizePrototype(proto), nil
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}

// Fingerprint digests the fields that identify a request, in order.
func Fingerprint(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

func scopedKey(cmd IdempotentCommand) string {
	if scope := cmd.IdempotencyScope(); scope != "" {
		return scope + ":" + cmd.IdempotencyKey()
	}
	return cmd.IdempotencyKey()
}
