package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

// ReviewRepository relies on the unique (listing_id, author_id) index from EnsureIndexes.
type ReviewRepository struct {
	col    *mongo.Collection
	outbox *Outbox
}

func NewReviewRepository(db *mongo.Database, outbox *Outbox) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewsCollection), outbox: outbox}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domainreviews.Review) error {
	doc := reviewDocument{
		ID:        string(review.ID),
		BookingID: string(review.BookingID),
		ListingID: string(review.ListingID),
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
	err := withTx(ctx, r.col.Database(), func(sc mongo.SessionContext) error {
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domainreviews.ErrDuplicate
			}
			return err
		}
		return r.outbox.write(sc, review.PendingEvents())
	})
	if err != nil {
		return translate(err, "create review")
	}
	review.ClearEvents()
	return nil
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"listing_id": string(listingID)}, opts)
	if err != nil {
		return nil, translate(err, "list reviews")
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "list reviews")
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) Stats(ctx context.Context, listingID domainlistings.ListingID) (domainreviews.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"listing_id": string(listingID)}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": "$rating"},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domainreviews.Stats{}, translate(err, "review stats")
	}
	defer cur.Close(ctx)
	var row struct {
		Count int `bson:"count"`
		Sum   int `bson:"sum"`
	}
	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return domainreviews.Stats{}, translate(err, "review stats")
		}
		return domainreviews.Stats{}, nil
	}
	if err := cur.Decode(&row); err != nil {
		return domainreviews.Stats{}, translate(err, "review stats")
	}
	return domainreviews.Stats{Count: row.Count, RatingSum: row.Sum}, nil
}

type reviewDocument struct {
	ID        string    `bson:"_id"`
	BookingID string    `bson:"booking_id"`
	ListingID string    `bson:"listing_id"`
	AuthorID  string    `bson:"author_id"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		BookingID: domainbooking.BookingID(d.BookingID),
		ListingID: domainlistings.ListingID(d.ListingID),
		AuthorID:  d.AuthorID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

var _ domainreviews.Store = (*ReviewRepository)(nil)
