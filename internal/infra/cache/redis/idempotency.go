package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"alxtravel/internal/app/middleware"
	"alxtravel/internal/domain/shared/fault"
)

const keyPrefix = "alxtravel:idemp:"

// IdempotencyStore keeps one JSON record per key. SET NX makes the first writer win and the
// key expiry bounds how long replays are honoured.
type IdempotencyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewIdempotencyStore(client goredis.UniversalClient, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

type record struct {
	Command     string    `json:"command"`
	Fingerprint string    `json:"fingerprint"`
	Payload     []byte    `json:"payload,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, fault.Wrap(fault.Unavailable, err, "redis: get idempotency record")
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return middleware.IdempotencyRecord{
		Key:         key,
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt,
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := json.Marshal(record{
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt,
	})
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+rec.Key, raw, s.ttl).Result()
	if err != nil {
		return fault.Wrap(fault.Unavailable, err, "redis: save idempotency record")
	}
	if !ok {
		return middleware.ErrIdempotencyKeyTaken
	}
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
