package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	listingsCollection    = "listings"
	bookingsCollection    = "bookings"
	guardsCollection      = "booking_guards"
	reviewsCollection     = "reviews"
	outboxCollection      = "app_outbox"
	idempotencyCollection = "app_idempotency"
)

// Client wraps the database handle. Transactions need a replica set or sharded cluster.
type Client struct {
	DB *mongo.Database
}

func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Majority())
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the indexes every store relies on. It is safe to call repeatedly.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		bookingsCollection: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}, {Key: "range.check_in", Value: 1}}},
			{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "author_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		outboxCollection: {
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return translate(err, "ensure indexes on "+name)
		}
	}
	return nil
}

// withTx runs fn in a multi-document transaction. The driver re-runs fn on transient errors,
// so fn must not leak side effects outside the session.
func withTx(ctx context.Context, db *mongo.Database, fn func(sc mongo.SessionContext) error) error {
	session, err := db.Client().StartSession()
	if err != nil {
		return translate(err, "start session")
	}
	defer session.EndSession(ctx)
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	}, txnOpts)
	return err
}
