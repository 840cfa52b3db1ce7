package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"alxtravel/internal/app/dto"
	"alxtravel/internal/app/queries"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
)

const (
	GetBookingKey        = "booking.get"
	ListGuestBookingsKey = "booking.guest.list"
)

type GetBookingQuery struct {
	BookingID   string `validate:"required"`
	RequesterID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return GetBookingKey }

// GetBookingHandler shows a booking to its guest or to the listing owner.
type GetBookingHandler struct {
	Listings domainlistings.Store
	Bookings domainbooking.Store
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingDTO, error) {
	b, err := h.Bookings.ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingDTO{}, normalize(err)
	}
	if strings.TrimSpace(q.RequesterID) != b.GuestID {
		listing, err := h.Listings.ByID(ctx, b.ListingID)
		if err != nil {
			return dto.BookingDTO{}, normalize(err)
		}
		if err := b.EnsureParticipant(q.RequesterID, listing.Owner); err != nil {
			return dto.BookingDTO{}, err
		}
	}
	return dto.MapBooking(b), nil
}

type ListGuestBookingsQuery struct {
	GuestID string `validate:"required"`
}

func (q ListGuestBookingsQuery) Key() string { return ListGuestBookingsKey }

type ListGuestBookingsHandler struct {
	Listings domainlistings.Store
	Bookings domainbooking.Store
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *ListGuestBookingsHandler) Handle(ctx context.Context, q ListGuestBookingsQuery) (dto.GuestBookingCollection, error) {
	guestID := strings.TrimSpace(q.GuestID)
	if guestID == "" {
		return dto.GuestBookingCollection{}, domainbooking.ErrGuestRequired
	}
	bookings, err := h.Bookings.ListByGuest(ctx, guestID)
	if err != nil {
		return dto.GuestBookingCollection{}, normalize(err)
	}

	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.GuestBookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summary := dto.GuestBookingSummary{
			BookingDTO: dto.MapBooking(b),
			CanReview:  b.Status != domainbooking.StatusCancelled && !b.Range.CheckOut.After(now),
		}
		listing, err := loadListing(ctx, h.Listings, b.ListingID, listingCache)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("listing snapshot missing for booking", "booking_id", b.ID, "listing_id", b.ListingID, "error", err)
			}
		} else {
			summary.ListingTitle = listing.Title
		}
		items = append(items, summary)
	}

	if h.Logger != nil {
		h.Logger.Debug("guest bookings listed", "guest_id", guestID, "count", len(items))
	}
	return dto.GuestBookingCollection{Items: items}, nil
}

func loadListing(
	ctx context.Context,
	store domainlistings.Store,
	id domainlistings.ListingID,
	cache map[domainlistings.ListingID]*domainlistings.Listing,
) (*domainlistings.Listing, error) {
	if listing, ok := cache[id]; ok {
		return listing, nil
	}
	listing, err := store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = listing
	return listing, nil
}

var (
	_ queries.Handler[GetBookingQuery, dto.BookingDTO]                    = (*GetBookingHandler)(nil)
	_ queries.Handler[ListGuestBookingsQuery, dto.GuestBookingCollection] = (*ListGuestBookingsHandler)(nil)
)
