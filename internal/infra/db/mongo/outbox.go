package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "alxtravel/internal/app/outbox"
	"alxtravel/internal/domain/shared/events"
)

const (
	stateNew     = "NEW"
	stateClaimed = "CLAIMED"
	stateSent    = "SENT"
	stateFailed  = "FAILED"
)

// Outbox stores event records next to the aggregates so both commit in one transaction.
type Outbox struct {
	col     *mongo.Collection
	encoder appoutbox.EventEncoder
	// claimTTL releases records whose worker died mid-publish.
	claimTTL time.Duration
}

func NewOutbox(db *mongo.Database) *Outbox {
	return &Outbox{col: db.Collection(outboxCollection), encoder: appoutbox.JSONEventEncoder{}, claimTTL: time.Minute}
}

type eventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
}

// write must be called with the session context of the surrounding transaction.
func (o *Outbox) write(sc mongo.SessionContext, evs []events.DomainEvent) error {
	if len(evs) == 0 {
		return nil
	}
	records, err := appoutbox.Encode(o.encoder, evs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	docs := make([]any, 0, len(records))
	for _, rec := range records {
		docs = append(docs, eventDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     rec.Payload,
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     rec.Headers,
			State:       stateNew,
			NextAttempt: now,
			CreatedAt:   now,
		})
	}
	_, err = o.col.InsertMany(sc, docs)
	return err
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*appoutbox.Claimed, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"state": bson.M{"$in": bson.A{stateNew, stateFailed}}, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"state": stateClaimed, "claimed_at": bson.M{"$lte": now.Add(-o.claimTTL)}},
	}}
	update := bson.M{"$set": bson.M{"state": stateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc eventDocument
	if err := o.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate(err, "claim outbox record")
	}
	return &appoutbox.Claimed{
		EventRecord: appoutbox.EventRecord{
			ID:         doc.ID,
			Name:       doc.Name,
			Payload:    doc.Payload,
			OccurredAt: doc.OccurredAt,
			Aggregate:  doc.Aggregate,
			Headers:    doc.Headers,
		},
		Attempts: doc.Attempts,
	}, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	_, err := o.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": stateSent, "sent_at": time.Now().UTC()}})
	return translate(err, "mark outbox record sent")
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           stateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := o.col.UpdateByID(ctx, id, update)
	return translate(err, "mark outbox record failed")
}

var _ appoutbox.Source = (*Outbox)(nil)
