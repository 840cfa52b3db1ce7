package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/money"
)

type ListingRepository struct {
	col    *mongo.Collection
	outbox *Outbox
}

func NewListingRepository(db *mongo.Database, outbox *Outbox) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection), outbox: outbox}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domainlistings.Listing) (domainlistings.ListingID, error) {
	if err := domainlistings.ValidatePrice(listing.NightlyPrice); err != nil {
		return "", err
	}
	doc := newListingDocument(listing)
	doc.Version = 1
	err := withTx(ctx, r.col.Database(), func(sc mongo.SessionContext) error {
		if _, err := r.col.InsertOne(sc, doc); err != nil {
			return err
		}
		return r.outbox.write(sc, listing.PendingEvents())
	})
	if err != nil {
		return "", translate(err, "create listing")
	}
	listing.ClearEvents()
	listing.Version = doc.Version
	return listing.ID, nil
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, translate(err, "load listing")
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) UpdatePrice(ctx context.Context, id domainlistings.ListingID, price money.Money) error {
	if err := domainlistings.ValidatePrice(price); err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"nightly_price": moneyDocument{Amount: price.Amount, Currency: price.Currency}, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	event := domainlistings.ListingPriceChangedEvent{ListingID: id, NightlyPrice: price, At: now}
	return r.update(ctx, bson.M{"_id": string(id)}, update, event, "update listing price")
}

func (r *ListingRepository) SetActive(ctx context.Context, id domainlistings.ListingID, active bool) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{"active": active, "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	err := r.update(ctx, bson.M{"_id": string(id), "active": !active}, update, domainlistings.ActiveChangedEvent(id, active, now), "set listing active")
	if errors.Is(err, domainlistings.ErrNotFound) {
		// Either missing or already in the requested state.
		_, lookupErr := r.ByID(ctx, id)
		return lookupErr
	}
	return err
}

func (r *ListingRepository) update(ctx context.Context, filter, update bson.M, event events.DomainEvent, op string) error {
	err := withTx(ctx, r.col.Database(), func(sc mongo.SessionContext) error {
		res, err := r.col.UpdateOne(sc, filter, update)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return domainlistings.ErrNotFound
		}
		return r.outbox.write(sc, []events.DomainEvent{event})
	})
	return translate(err, op)
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func (m moneyDocument) toMoney() money.Money {
	return money.Money{Amount: m.Amount, Currency: m.Currency}
}

type listingDocument struct {
	ID           string        `bson:"_id"`
	Owner        string        `bson:"owner"`
	Title        string        `bson:"title"`
	Description  string        `bson:"description"`
	Location     string        `bson:"location"`
	NightlyPrice moneyDocument `bson:"nightly_price"`
	Active       bool          `bson:"active"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
	Version      int64         `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:           string(l.ID),
		Owner:        string(l.Owner),
		Title:        l.Title,
		Description:  l.Description,
		Location:     l.Location,
		NightlyPrice: moneyDocument{Amount: l.NightlyPrice.Amount, Currency: l.NightlyPrice.Currency},
		Active:       l.Active,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		Version:      l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(d.ID),
		Owner:        domainlistings.HostID(d.Owner),
		Title:        d.Title,
		Description:  d.Description,
		Location:     d.Location,
		NightlyPrice: d.NightlyPrice.toMoney(),
		Active:       d.Active,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Version:      d.Version,
	}
}

var _ domainlistings.Store = (*ListingRepository)(nil)
