package listings

import (
	"context"
	"strings"
	"time"

	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
)

var (
	ErrNotFound      = fault.New(fault.NotFound, "listings: not found")
	ErrInactive      = fault.New(fault.ListingInactive, "listings: listing is not active")
	ErrNotOwner      = fault.New(fault.Forbidden, "listings: only the owner may modify the listing")
	ErrIDRequired    = fault.New(fault.InvalidArgument, "listings: id is required")
	ErrOwnerRequired = fault.New(fault.InvalidArgument, "listings: owner is required")
	ErrTitleRequired = fault.New(fault.InvalidArgument, "listings: title is required")
	ErrNightlyPrice  = fault.New(fault.InvalidArgument, "listings: nightly price must be between 0 and 999999.99")
)

type ListingID string
type HostID string

type Listing struct {
	ID           ListingID
	Owner        HostID
	Title        string
	Description  string
	Location     string
	NightlyPrice money.Money
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Store is the durable record of listings. All operations touch a single listing.
type Store interface {
	Create(ctx context.Context, listing *Listing) (ListingID, error)
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	UpdatePrice(ctx context.Context, id ListingID, price money.Money) error
	SetActive(ctx context.Context, id ListingID, active bool) error
}

type CreateListingParams struct {
	ID           ListingID
	Owner        HostID
	Title        string
	Description  string
	Location     string
	NightlyPrice money.Money
	Now          time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := ValidatePrice(params.NightlyPrice); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:           params.ID,
		Owner:        params.Owner,
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		Location:     strings.TrimSpace(params.Location),
		NightlyPrice: params.NightlyPrice,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, Owner: listing.Owner, NightlyPrice: listing.NightlyPrice, At: now})
	return listing, nil
}

// MaxNightlyPrice is the largest rate a listing may carry: 999999.99 in minor units.
const MaxNightlyPrice int64 = 99999999

// ValidatePrice rejects negative or oversized amounts and missing currencies.
func ValidatePrice(price money.Money) error {
	if price.IsNegative() || price.Amount > MaxNightlyPrice {
		return ErrNightlyPrice
	}
	if len(price.Currency) != 3 {
		return money.ErrInvalidCurrency
	}
	return nil
}

// EnsureOwner fails with ErrNotOwner unless requester owns the listing.
func (l *Listing) EnsureOwner(requester string) error {
	if requester == "" || HostID(requester) != l.Owner {
		return ErrNotOwner
	}
	return nil
}

// EnsureBookable fails with ErrInactive for deactivated listings.
func (l *Listing) EnsureBookable() error {
	if !l.Active {
		return ErrInactive
	}
	return nil
}

// Clone returns a detached copy without pending events.
func (l *Listing) Clone() *Listing {
	clone := *l
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}
