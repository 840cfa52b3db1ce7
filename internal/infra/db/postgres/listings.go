package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/money"
)

type ListingRepository struct {
	db     *gorm.DB
	outbox *Outbox
}

func NewListingRepository(db *gorm.DB, outbox *Outbox) *ListingRepository {
	return &ListingRepository{db: db, outbox: outbox}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domainlistings.Listing) (domainlistings.ListingID, error) {
	if err := domainlistings.ValidatePrice(listing.NightlyPrice); err != nil {
		return "", err
	}
	row := newListingRow(listing)
	row.Version = 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return r.outbox.write(tx, listing.PendingEvents())
	})
	if err != nil {
		return "", translate(err, "create listing")
	}
	listing.ClearEvents()
	listing.Version = row.Version
	return listing.ID, nil
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var row listingRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, translate(err, "load listing")
	}
	return row.toAggregate(), nil
}

func (r *ListingRepository) UpdatePrice(ctx context.Context, id domainlistings.ListingID, price money.Money) error {
	if err := domainlistings.ValidatePrice(price); err != nil {
		return err
	}
	now := time.Now().UTC()
	changes := map[string]any{
		"nightly_amount":   price.Amount,
		"nightly_currency": price.Currency,
		"updated_at":       now,
		"version":          gorm.Expr("version + 1"),
	}
	event := domainlistings.ListingPriceChangedEvent{ListingID: id, NightlyPrice: price, At: now}
	return r.update(ctx, "id = ?", []any{string(id)}, changes, event, "update listing price")
}

func (r *ListingRepository) SetActive(ctx context.Context, id domainlistings.ListingID, active bool) error {
	now := time.Now().UTC()
	changes := map[string]any{
		"active":     active,
		"updated_at": now,
		"version":    gorm.Expr("version + 1"),
	}
	err := r.update(ctx, "id = ? AND active = ?", []any{string(id), !active}, changes, domainlistings.ActiveChangedEvent(id, active, now), "set listing active")
	if errors.Is(err, domainlistings.ErrNotFound) {
		// Either missing or already in the requested state.
		_, lookupErr := r.ByID(ctx, id)
		return lookupErr
	}
	return err
}

func (r *ListingRepository) update(ctx context.Context, where string, args []any, changes map[string]any, event events.DomainEvent, op string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&listingRow{}).Where(where, args...).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainlistings.ErrNotFound
		}
		return r.outbox.write(tx, []events.DomainEvent{event})
	})
	return translate(err, op)
}

func newListingRow(l *domainlistings.Listing) listingRow {
	return listingRow{
		ID:              string(l.ID),
		Owner:           string(l.Owner),
		Title:           l.Title,
		Description:     l.Description,
		Location:        l.Location,
		NightlyAmount:   l.NightlyPrice.Amount,
		NightlyCurrency: l.NightlyPrice.Currency,
		Active:          l.Active,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
		Version:         l.Version,
	}
}

func (row listingRow) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(row.ID),
		Owner:        domainlistings.HostID(row.Owner),
		Title:        row.Title,
		Description:  row.Description,
		Location:     row.Location,
		NightlyPrice: money.Money{Amount: row.NightlyAmount, Currency: row.NightlyCurrency},
		Active:       row.Active,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		Version:      row.Version,
	}
}

var _ domainlistings.Store = (*ListingRepository)(nil)
