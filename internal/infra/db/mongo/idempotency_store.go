package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"alxtravel/internal/app/middleware"
)

type IdempotencyStore struct {
	col *mongo.Collection
}

// NewIdempotencyStore expires records through a TTL index on created_at.
func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	col := db.Collection(idempotencyCollection)
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(ttl.Seconds())),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, translate(err, "create idempotency ttl index")
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, translate(err, "load idempotency record")
	}
	return doc.toRecord(), true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		Key:         rec.Key,
		Command:     rec.Command,
		Fingerprint: rec.Fingerprint,
		Payload:     rec.Payload,
		Error:       rec.Error,
		ErrorKind:   rec.ErrorKind,
		OccurredAt:  rec.OccurredAt,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return middleware.ErrIdempotencyKeyTaken
		}
		return translate(err, "save idempotency record")
	}
	return nil
}

type idempotencyDocument struct {
	Key         string    `bson:"_id"`
	Command     string    `bson:"command"`
	Fingerprint string    `bson:"fingerprint"`
	Payload     []byte    `bson:"payload"`
	Error       string    `bson:"error"`
	ErrorKind   string    `bson:"error_kind"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d idempotencyDocument) toRecord() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{
		Key:         d.Key,
		Command:     d.Command,
		Fingerprint: d.Fingerprint,
		Payload:     d.Payload,
		Error:       d.Error,
		ErrorKind:   d.ErrorKind,
		OccurredAt:  d.OccurredAt,
	}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
