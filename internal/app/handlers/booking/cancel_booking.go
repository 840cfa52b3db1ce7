package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"alxtravel/internal/app/commands"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
)

const CancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID   string `validate:"required"`
	RequesterID string `validate:"required"`
}

func (c CancelBookingCommand) Key() string { return CancelBookingKey }

type CancelBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// CancelBookingHandler lets the guest or the listing owner release a booking's dates.
type CancelBookingHandler struct {
	Listings     domainlistings.Store
	Bookings     domainbooking.Store
	Logger       *slog.Logger
	StoreTimeout time.Duration
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("booking_id", cmd.BookingID, "requester_id", cmd.RequesterID)

	b, err := h.Bookings.ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, normalize(err)
	}
	listing, err := h.Listings.ByID(ctx, b.ListingID)
	if err != nil {
		return nil, normalize(err)
	}
	if err := b.EnsureParticipant(cmd.RequesterID, listing.Owner); err != nil {
		return nil, err
	}
	if b.Status == domainbooking.StatusCancelled {
		return nil, domainbooking.ErrAlreadyCancelled
	}

	commitCtx, cancel := detached(ctx, h.StoreTimeout)
	defer cancel()
	if err := h.Bookings.SetStatus(commitCtx, b.ID, domainbooking.StatusCancelled); err != nil {
		// CANCELLED is the only state that cannot move to CANCELLED, so a lost race lands here.
		if errors.Is(err, domainbooking.ErrInvalidTransition) {
			return nil, domainbooking.ErrAlreadyCancelled
		}
		return nil, normalize(err)
	}
	logger.InfoContext(ctx, "booking cancelled", "listing_id", b.ListingID, "from", b.Status)

	return &CancelBookingResult{BookingID: string(b.ID), Status: string(domainbooking.StatusCancelled)}, nil
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
