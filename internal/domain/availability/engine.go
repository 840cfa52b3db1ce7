package availability

import (
	"context"
	"fmt"
	"time"

	"alxtravel/internal/domain/booking"
	"alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/pricing"
	"alxtravel/internal/domain/shared/daterange"
)

// ListingReader is the part of listings.Store the engine needs.
type ListingReader interface {
	ByID(ctx context.Context, id listings.ListingID) (*listings.Listing, error)
}

// Engine answers availability and price questions. It holds no state of its own.
type Engine struct {
	bookings booking.Reader
	listings ListingReader
}

func NewEngine(bookings booking.Reader, listingStore ListingReader) *Engine {
	return &Engine{bookings: bookings, listings: listingStore}
}

// IsAvailable reports whether no active booking of the listing intersects [checkIn, checkOut).
func (e *Engine) IsAvailable(ctx context.Context, listingID listings.ListingID, checkIn, checkOut time.Time) (bool, error) {
	requested, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return e.Predicate(listingID, requested)(ctx, e.bookings)
}

// ComputePrice quotes the stay at the listing's current nightly price.
func (e *Engine) ComputePrice(ctx context.Context, listingID listings.ListingID, checkIn, checkOut time.Time) (pricing.Breakdown, error) {
	requested, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	listing, err := e.listings.ByID(ctx, listingID)
	if err != nil {
		return pricing.Breakdown{}, err
	}
	return pricing.Quote(listing.NightlyPrice, requested)
}

// Predicate applies the overlap rule through whatever Reader it is handed, so stores can run it
// against their transaction.
func (e *Engine) Predicate(listingID listings.ListingID, requested daterange.DateRange) booking.Predicate {
	return func(ctx context.Context, r booking.Reader) (bool, error) {
		for existing, err := range r.ListActiveForListing(ctx, listingID, &requested) {
			if err != nil {
				return false, fmt.Errorf("availability: scan bookings: %w", err)
			}
			if existing.Status.Active() && existing.Range.Overlaps(requested) {
				return false, nil
			}
		}
		return true, nil
	}
}

// FreeRanges returns the maximal sub-ranges of [from, to) free of active bookings, ascending.
func (e *Engine) FreeRanges(ctx context.Context, listingID listings.ListingID, from, to time.Time) ([]daterange.DateRange, error) {
	window, err := daterange.New(from, to)
	if err != nil {
		return nil, err
	}
	var taken []daterange.DateRange
	for existing, err := range e.bookings.ListActiveForListing(ctx, listingID, &window) {
		if err != nil {
			return nil, fmt.Errorf("availability: scan bookings: %w", err)
		}
		if existing.Status.Active() {
			taken = append(taken, existing.Range)
		}
	}
	return daterange.Gaps(window, taken), nil
}
