package mongo

import (
	"context"
	"errors"
	"iter"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
)

// BookingRepository keeps bookings plus one guard document per listing. Every insert bumps the
// listing's guard inside its transaction, so two concurrent inserts on one listing write-conflict
// and the loser re-runs against the winner's committed state.
type BookingRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
	outbox *Outbox
}

func NewBookingRepository(db *mongo.Database, outbox *Outbox) *BookingRepository {
	return &BookingRepository{
		col:    db.Collection(bookingsCollection),
		guards: db.Collection(guardsCollection),
		outbox: outbox,
	}
}

func (r *BookingRepository) InsertIfAvailable(ctx context.Context, b *domainbooking.Booking, available domainbooking.Predicate) (domainbooking.BookingID, error) {
	if err := r.ensureGuard(ctx, b.ListingID); err != nil {
		return "", err
	}
	doc := newBookingDocument(b)
	doc.Version = 1
	err := withTx(ctx, r.col.Database(), func(sc mongo.SessionContext) error {
		guard := bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"touched_at": time.Now().UTC()}}
		if _, err := r.guards.UpdateByID(sc, string(b.ListingID), guard); err != nil {
			return err
		}
		if available != nil {
			// sc carries the session, so the predicate reads through the transaction snapshot.
			ok, err := available(sc, r)
			if err != nil {
				return err
			}
			if !ok {
				return domainbooking.ErrConflict
			}
		}
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			return err
		}
		return r.outbox.write(sc, b.PendingEvents())
	})
	if err != nil {
		return "", translate(err, "insert booking")
	}
	b.ClearEvents()
	b.Version = doc.Version
	return b.ID, nil
}

func (r *BookingRepository) ensureGuard(ctx context.Context, listingID domainlistings.ListingID) error {
	_, err := r.guards.UpdateByID(ctx, string(listingID),
		bson.M{"$setOnInsert": bson.M{"seq": int64(0)}},
		options.Update().SetUpsert(true))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return translate(err, "ensure booking guard")
	}
	return nil
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, translate(err, "load booking")
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) ListActiveForListing(ctx context.Context, listingID domainlistings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return func(yield func(*domainbooking.Booking, error) bool) {
		filter := bson.M{
			"listing_id": string(listingID),
			"status":     bson.M{"$in": bson.A{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}},
		}
		if overlapping != nil {
			filter["range.check_in"] = bson.M{"$lt": overlapping.CheckOut.UnixMilli()}
			filter["range.check_out"] = bson.M{"$gt": overlapping.CheckIn.UnixMilli()}
		}
		opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}})
		cur, err := r.col.Find(ctx, filter, opts)
		if err != nil {
			yield(nil, translate(err, "list active bookings"))
			return
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var doc bookingDocument
			if err := cur.Decode(&doc); err != nil {
				yield(nil, translate(err, "decode booking"))
				return
			}
			if !yield(doc.toAggregate(), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, translate(err, "list active bookings"))
		}
	}
}

func (r *BookingRepository) SetStatus(ctx context.Context, id domainbooking.BookingID, status domainbooking.Status) error {
	err := withTx(ctx, r.col.Database(), func(sc mongo.SessionContext) error {
		var doc bookingDocument
		if err := r.col.FindOne(sc, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domainbooking.ErrNotFound
			}
			return err
		}
		b := doc.toAggregate()
		if err := b.ApplyStatus(status, time.Now()); err != nil {
			return err
		}
		update := bson.M{
			"$set": bson.M{"status": string(b.Status), "updated_at": b.UpdatedAt.UnixMilli()},
			"$inc": bson.M{"version": 1},
		}
		res, err := r.col.UpdateOne(sc, bson.M{"_id": string(id), "version": doc.Version}, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrConcurrentUpdate
		}
		return r.outbox.write(sc, b.PendingEvents())
	})
	return translate(err, "set booking status")
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"guest_id": guestID}, opts)
	if err != nil {
		return nil, translate(err, "list guest bookings")
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "list guest bookings")
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	GuestID   string        `bson:"guest_id"`
	Range     rangeDocument `bson:"range"`
	Status    string        `bson:"status"`
	Nights    int           `bson:"nights"`
	Nightly   moneyDocument `bson:"nightly"`
	Total     moneyDocument `bson:"total"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        string(b.ID),
		ListingID: string(b.ListingID),
		GuestID:   b.GuestID,
		Range:     rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Status:    string(b.Status),
		Nights:    b.Nights,
		Nightly:   moneyDocument{Amount: b.Nightly.Amount, Currency: b.Nightly.Currency},
		Total:     moneyDocument{Amount: b.Total.Amount, Currency: b.Total.Currency},
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		ListingID: domainlistings.ListingID(d.ListingID),
		GuestID:   d.GuestID,
		Range:     daterange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Status:    domainbooking.Status(d.Status),
		Nights:    d.Nights,
		Nightly:   d.Nightly.toMoney(),
		Total:     d.Total.toMoney(),
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Store = (*BookingRepository)(nil)
