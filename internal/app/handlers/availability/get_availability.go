package availability

import (
	"context"
	"time"

	"alxtravel/internal/app/dto"
	"alxtravel/internal/app/queries"
	domainavailability "alxtravel/internal/domain/availability"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
)

const (
	GetAvailabilityKey = "availability.get"
	QuoteKey           = "availability.quote"

	maxWindowNights = 366
)

var ErrWindowTooLarge = fault.New(fault.InvalidArgument, "availability: window may span at most 366 nights")

type GetAvailabilityQuery struct {
	ListingID string    `validate:"required"`
	From      time.Time `validate:"required"`
	To        time.Time `validate:"required"`
}

func (q GetAvailabilityQuery) Key() string { return GetAvailabilityKey }

// GetAvailabilityHandler lists the free sub-ranges of a window.
type GetAvailabilityHandler struct {
	Listings domainlistings.Store
	Engine   *domainavailability.Engine
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (dto.Availability, error) {
	window, err := daterange.NewDates(q.From, q.To)
	if err != nil {
		return dto.Availability{}, err
	}
	if nights, _ := window.Nights(); nights > maxWindowNights {
		return dto.Availability{}, ErrWindowTooLarge
	}
	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := h.Listings.ByID(ctx, listingID); err != nil {
		return dto.Availability{}, err
	}
	free, err := h.Engine.FreeRanges(ctx, listingID, window.CheckIn, window.CheckOut)
	if err != nil {
		return dto.Availability{}, err
	}
	return dto.MapAvailability(q.ListingID, window, free), nil
}

type QuoteQuery struct {
	ListingID string    `validate:"required"`
	CheckIn   time.Time `validate:"required"`
	CheckOut  time.Time `validate:"required"`
}

func (q QuoteQuery) Key() string { return QuoteKey }

// QuoteHandler prices a stay at the current nightly rate without reserving anything.
type QuoteHandler struct {
	Engine *domainavailability.Engine
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	requested, err := daterange.NewDates(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	breakdown, err := h.Engine.ComputePrice(ctx, domainlistings.ListingID(q.ListingID), requested.CheckIn, requested.CheckOut)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(q.ListingID, requested, breakdown), nil
}

var (
	_ queries.Handler[GetAvailabilityQuery, dto.Availability] = (*GetAvailabilityHandler)(nil)
	_ queries.Handler[QuoteQuery, dto.Quote]                  = (*QuoteHandler)(nil)
)
