package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	"alxtravel/internal/app/middleware"
	"alxtravel/internal/domain/availability"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
)

const RequestBookingKey = "booking.request"

// Stage marks how far a booking request progressed; it is attached to every log line of the request.
type Stage string

const (
	StageReceived            Stage = "RECEIVED"
	StageValidated           Stage = "VALIDATED"
	StageAvailabilityChecked Stage = "AVAILABILITY_CHECKED"
	StageCommitted           Stage = "COMMITTED"
	StageRejected            Stage = "REJECTED"
)

const defaultStoreTimeout = 5 * time.Second

type RequestBookingCommand struct {
	ListingID       string    `validate:"required"`
	GuestID         string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return RequestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

// IdempotencyScope keeps one guest's keys apart from another's.
func (c RequestBookingCommand) IdempotencyScope() string { return c.GuestID }

func (c RequestBookingCommand) Fingerprint() string {
	return middleware.Fingerprint(
		c.ListingID,
		c.GuestID,
		c.CheckIn.UTC().Format(daterange.DateLayout),
		c.CheckOut.UTC().Format(daterange.DateLayout),
	)
}

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string       `json:"booking_id"`
	Status    string       `json:"status"`
	Nights    int          `json:"nights"`
	Total     dto.MoneyDTO `json:"total"`
}

type RequestBookingHandler struct {
	Listings     domainlistings.Store
	Bookings     domainbooking.Store
	Engine       *availability.Engine
	Logger       *slog.Logger
	StoreTimeout time.Duration
	Now          func() time.Time
	NewID        func() string
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	logger := h.logger().With("listing_id", cmd.ListingID, "guest_id", cmd.GuestID)
	logger.DebugContext(ctx, "booking request", "stage", StageReceived)

	now := h.now()
	requested, err := daterange.NewDates(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, reject(ctx, logger, StageReceived, err)
	}
	if err := domainbooking.ValidateCheckIn(requested, now); err != nil {
		return nil, reject(ctx, logger, StageReceived, err)
	}
	listingID := domainlistings.ListingID(cmd.ListingID)
	listing, err := h.Listings.ByID(ctx, listingID)
	if err != nil {
		return nil, reject(ctx, logger, StageReceived, err)
	}
	if err := listing.EnsureBookable(); err != nil {
		return nil, reject(ctx, logger, StageReceived, err)
	}
	logger.DebugContext(ctx, "booking request", "stage", StageValidated, "range", requested.String())

	price, err := h.Engine.ComputePrice(ctx, listingID, requested.CheckIn, requested.CheckOut)
	if err != nil {
		return nil, reject(ctx, logger, StageValidated, err)
	}
	free, err := h.Engine.IsAvailable(ctx, listingID, requested.CheckIn, requested.CheckOut)
	if err != nil {
		return nil, reject(ctx, logger, StageValidated, err)
	}
	if !free {
		return nil, reject(ctx, logger, StageValidated, domainbooking.ErrConflict)
	}
	logger.DebugContext(ctx, "booking request", "stage", StageAvailabilityChecked, "total", price.Total.String())

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(h.newID()),
		ListingID: listingID,
		GuestID:   cmd.GuestID,
		Range:     requested,
		Price:     price,
		CreatedAt: now,
	})
	if err != nil {
		return nil, reject(ctx, logger, StageAvailabilityChecked, err)
	}
	if err := b.Confirm(now); err != nil {
		return nil, reject(ctx, logger, StageAvailabilityChecked, err)
	}

	// The insert must finish or fail as a whole even if the caller goes away.
	commitCtx, cancel := detached(ctx, h.StoreTimeout)
	defer cancel()
	id, err := h.Bookings.InsertIfAvailable(commitCtx, b, h.Engine.Predicate(listingID, requested))
	if err != nil {
		return nil, reject(ctx, logger, StageAvailabilityChecked, err)
	}
	logger.InfoContext(ctx, "booking committed", "stage", StageCommitted, "booking_id", id, "range", requested.String())

	return &RequestBookingResult{
		BookingID: string(id),
		Status:    string(b.Status),
		Nights:    b.Nights,
		Total:     dto.MapMoney(b.Total),
	}, nil
}

func (h *RequestBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *RequestBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func reject(ctx context.Context, logger *slog.Logger, at Stage, err error) error {
	err = normalize(err)
	logger.InfoContext(ctx, "booking request rejected",
		"stage", StageRejected,
		"after", at,
		"kind", fault.KindOf(err).String(),
		"err", err,
	)
	return err
}

// detached drops caller cancellation but keeps a store deadline.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// normalize classifies cancellation errors coming back from stores.
func normalize(err error) error {
	if err == nil || fault.KindOf(err) != fault.Unknown {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.Unavailable, err, "booking: request cancelled before the store answered")
	}
	return err
}

var (
	_ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                                   = RequestBookingCommand{}
)
