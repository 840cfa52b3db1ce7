package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/money"
)

const (
	CreateListingKey      = "listings.create"
	UpdateListingPriceKey = "listings.price.update"
	ActivateListingKey    = "listings.activate"
	DeactivateListingKey  = "listings.deactivate"
)

type CreateListingCommand struct {
	OwnerID      string `validate:"required"`
	Title        string `validate:"required,max=200"`
	Description  string `validate:"max=5000"`
	Location     string `validate:"max=300"`
	NightlyPrice money.Money
}

func (c CreateListingCommand) Key() string { return CreateListingKey }

type CreateListingHandler struct {
	Listings domainlistings.Store
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.ListingDTO, error) {
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		Owner:        domainlistings.HostID(cmd.OwnerID),
		Title:        cmd.Title,
		Description:  cmd.Description,
		Location:     cmd.Location,
		NightlyPrice: cmd.NightlyPrice,
		Now:          now(h.Now),
	})
	if err != nil {
		return nil, err
	}
	id, err := h.Listings.Create(ctx, listing)
	if err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", id, "owner", cmd.OwnerID)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type UpdateListingPriceCommand struct {
	ListingID   string `validate:"required"`
	RequesterID string `validate:"required"`
	Price       money.Money
}

func (c UpdateListingPriceCommand) Key() string { return UpdateListingPriceKey }

// UpdateListingPriceHandler changes the nightly rate for future quotes; existing bookings keep their snapshot.
type UpdateListingPriceHandler struct {
	Listings domainlistings.Store
	Logger   *slog.Logger
}

func (h *UpdateListingPriceHandler) Handle(ctx context.Context, cmd UpdateListingPriceCommand) (*dto.ListingDTO, error) {
	if err := domainlistings.ValidatePrice(cmd.Price); err != nil {
		return nil, err
	}
	id := domainlistings.ListingID(cmd.ListingID)
	listing, err := h.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := listing.EnsureOwner(cmd.RequesterID); err != nil {
		return nil, err
	}
	if err := h.Listings.UpdatePrice(ctx, id, cmd.Price); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("listing price updated", "listing_id", id, "price", cmd.Price.String())
	}
	return reload(ctx, h.Listings, id)
}

type SetListingActiveCommand struct {
	ListingID   string `validate:"required"`
	RequesterID string `validate:"required"`
	Active      bool
}

func (c SetListingActiveCommand) Key() string {
	if c.Active {
		return ActivateListingKey
	}
	return DeactivateListingKey
}

// SetListingActiveHandler toggles whether new bookings are accepted. Existing bookings are untouched.
type SetListingActiveHandler struct {
	Listings domainlistings.Store
	Logger   *slog.Logger
}

func (h *SetListingActiveHandler) Handle(ctx context.Context, cmd SetListingActiveCommand) (*dto.ListingDTO, error) {
	id := domainlistings.ListingID(cmd.ListingID)
	listing, err := h.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := listing.EnsureOwner(cmd.RequesterID); err != nil {
		return nil, err
	}
	if listing.Active != cmd.Active {
		if err := h.Listings.SetActive(ctx, id, cmd.Active); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Info("listing active flag changed", "listing_id", id, "active", cmd.Active)
		}
	}
	return reload(ctx, h.Listings, id)
}

func reload(ctx context.Context, store domainlistings.Store, id domainlistings.ListingID) (*dto.ListingDTO, error) {
	listing, err := store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := dto.MapListing(listing)
	return &result, nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[CreateListingCommand, *dto.ListingDTO]      = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingPriceCommand, *dto.ListingDTO] = (*UpdateListingPriceHandler)(nil)
	_ commands.Handler[SetListingActiveCommand, *dto.ListingDTO]   = (*SetListingActiveHandler)(nil)
)
