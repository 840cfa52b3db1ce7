package booking

import (
	"context"
	"iter"
	"strings"
	"time"

	"alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/pricing"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
)

var (
	ErrNotFound          = fault.New(fault.NotFound, "booking: not found")
	ErrConflict          = fault.New(fault.Conflict, "booking: requested dates overlap an existing booking")
	ErrInvalidTransition = fault.New(fault.InvalidTransition, "booking: invalid state transition")
	ErrAlreadyCancelled  = fault.New(fault.AlreadyCancelled, "booking: already cancelled")
	ErrNotParticipant    = fault.New(fault.Forbidden, "booking: only the guest or the listing owner may cancel")
	ErrCheckInInPast     = fault.New(fault.InvalidArgument, "booking: check-in date is in the past")
	ErrGuestRequired     = fault.New(fault.InvalidArgument, "booking: guest id required")
	ErrIDRequired        = fault.New(fault.InvalidArgument, "booking: id required")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	return s.Active() || s == StatusCancelled
}

// CanTransition encodes PENDING->CONFIRMED, PENDING->CANCELLED and CONFIRMED->CANCELLED.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Status    Status
	Nights    int
	Nightly   money.Money
	Total     money.Money
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

// Reader is the read path a Predicate may use. Inside InsertIfAvailable it is bound to the store transaction.
type Reader interface {
	// ListActiveForListing yields PENDING and CONFIRMED bookings of the listing, restricted to those
	// intersecting overlapping when it is non-nil.
	ListActiveForListing(ctx context.Context, listingID listings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*Booking, error]
}

// Predicate decides, inside the store transaction, whether the insert may proceed.
type Predicate func(ctx context.Context, r Reader) (bool, error)

// Store is the durable, transactional record of bookings.
type Store interface {
	Reader
	// InsertIfAvailable evaluates available and inserts b in one atomic step; it returns ErrConflict
	// when the predicate rejects or a concurrent writer wins.
	InsertIfAvailable(ctx context.Context, b *Booking, available Predicate) (BookingID, error)
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	SetStatus(ctx context.Context, id BookingID, status Status) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Price     pricing.Breakdown
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   strings.TrimSpace(params.GuestID),
		Range:     params.Range,
		Status:    StatusPending,
		Nights:    params.Price.Nights,
		Nightly:   params.Price.Nightly,
		Total:     params.Price.Total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, At: now})
	return b, nil
}

func (b *Booking) Confirm(now time.Time) error {
	return b.ApplyStatus(StatusConfirmed, now)
}

func (b *Booking) Cancel(now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	return b.ApplyStatus(StatusCancelled, now)
}

// ApplyStatus moves the booking to status if the transition is allowed and records the matching event.
func (b *Booking) ApplyStatus(status Status, now time.Time) error {
	if !CanTransition(b.Status, status) {
		return ErrInvalidTransition
	}
	from := b.Status
	b.Status = status
	b.UpdatedAt = now.UTC()
	switch status {
	case StatusConfirmed:
		b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	case StatusCancelled:
		b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, From: from, At: b.UpdatedAt})
	}
	return nil
}

// EnsureParticipant allows the guest and the listing owner.
func (b *Booking) EnsureParticipant(requester string, owner listings.HostID) error {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return ErrNotParticipant
	}
	if requester == b.GuestID || listings.HostID(requester) == owner {
		return nil
	}
	return ErrNotParticipant
}

// Clone returns a detached copy without pending events.
func (b *Booking) Clone() *Booking {
	clone := *b
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

// ValidateCheckIn rejects check-in dates before today (UTC).
func ValidateCheckIn(dr daterange.DateRange, now time.Time) error {
	if daterange.Truncate(dr.CheckIn).Before(daterange.Truncate(now)) {
		return ErrCheckInInPast
	}
	return nil
}
