package memory

import (
	"context"
	"sync"
	"time"

	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
)

var errListingExists = fault.New(fault.Conflict, "memory: listing id already exists")

// ListingRepository is an in-memory listings.Store for development and tests.
type ListingRepository struct {
	mu     sync.RWMutex
	items  map[domainlistings.ListingID]*domainlistings.Listing
	outbox *Outbox
}

// NewListingRepository builds an empty repository. outbox may be nil.
func NewListingRepository(outbox *Outbox) *ListingRepository {
	return &ListingRepository{
		items:  make(map[domainlistings.ListingID]*domainlistings.Listing),
		outbox: outbox,
	}
}

func (r *ListingRepository) Create(_ context.Context, listing *domainlistings.Listing) (domainlistings.ListingID, error) {
	if err := domainlistings.ValidatePrice(listing.NightlyPrice); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[listing.ID]; ok {
		return "", errListingExists
	}
	if err := r.outbox.write(listing.PendingEvents()); err != nil {
		return "", err
	}
	listing.ClearEvents()
	stored := listing.Clone()
	stored.Version = 1
	listing.Version = 1
	r.items[listing.ID] = stored
	return listing.ID, nil
}

// ByID returns a copy of the listing or listings.ErrNotFound.
func (r *ListingRepository) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing.Clone(), nil
}

func (r *ListingRepository) UpdatePrice(_ context.Context, id domainlistings.ListingID, price money.Money) error {
	if err := domainlistings.ValidatePrice(price); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.items[id]
	if !ok {
		return domainlistings.ErrNotFound
	}
	now := time.Now().UTC()
	updated := listing.Clone()
	updated.NightlyPrice = price
	updated.UpdatedAt = now
	updated.Version++
	updated.Record(domainlistings.ListingPriceChangedEvent{ListingID: id, NightlyPrice: price, At: now})
	return r.commit(updated)
}

func (r *ListingRepository) SetActive(_ context.Context, id domainlistings.ListingID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.items[id]
	if !ok {
		return domainlistings.ErrNotFound
	}
	if listing.Active == active {
		return nil
	}
	now := time.Now().UTC()
	updated := listing.Clone()
	updated.Active = active
	updated.UpdatedAt = now
	updated.Version++
	updated.Record(domainlistings.ActiveChangedEvent(id, active, now))
	return r.commit(updated)
}

func (r *ListingRepository) commit(listing *domainlistings.Listing) error {
	if err := r.outbox.write(listing.PendingEvents()); err != nil {
		return err
	}
	listing.ClearEvents()
	r.items[listing.ID] = listing
	return nil
}

var _ domainlistings.Store = (*ListingRepository)(nil)
