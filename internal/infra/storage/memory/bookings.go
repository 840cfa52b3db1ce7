package memory

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
)

var errBookingExists = fault.New(fault.Conflict, "memory: booking id already exists")

// BookingRepository stores bookings in memory. Its mutex is the transaction boundary: the
// availability predicate and the insert run under one write lock.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[domainbooking.BookingID]*domainbooking.Booking
	order  []domainbooking.BookingID
	outbox *Outbox
}

// NewBookingRepository builds an empty booking repo. outbox may be nil.
func NewBookingRepository(outbox *Outbox) *BookingRepository {
	return &BookingRepository{
		items:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		outbox: outbox,
	}
}

func (r *BookingRepository) InsertIfAvailable(ctx context.Context, b *domainbooking.Booking, available domainbooking.Predicate) (domainbooking.BookingID, error) {
	if err := ctx.Err(); err != nil {
		return "", fault.Wrap(fault.Unavailable, err, "memory: insert booking")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; ok {
		return "", errBookingExists
	}
	if available != nil {
		ok, err := available(ctx, lockedReader{r})
		if err != nil {
			return "", err
		}
		if !ok {
			return "", domainbooking.ErrConflict
		}
	}
	if err := r.outbox.write(b.PendingEvents()); err != nil {
		return "", err
	}
	b.ClearEvents()
	b.Version = 1
	r.items[b.ID] = b.Clone()
	r.order = append(r.order, b.ID)
	return b.ID, nil
}

// ByID fetches a copy of the booking.
func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b.Clone(), nil
}

// ListActiveForListing snapshots matching bookings on first pull and yields copies ordered by check-in.
func (r *BookingRepository) ListActiveForListing(_ context.Context, listingID domainlistings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return func(yield func(*domainbooking.Booking, error) bool) {
		r.mu.RLock()
		matches := r.activeFor(listingID, overlapping)
		r.mu.RUnlock()
		for _, b := range matches {
			if !yield(b, nil) {
				return
			}
		}
	}
}

func (r *BookingRepository) SetStatus(_ context.Context, id domainbooking.BookingID, status domainbooking.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[id]
	if !ok {
		return domainbooking.ErrNotFound
	}
	updated := current.Clone()
	if err := updated.ApplyStatus(status, time.Now()); err != nil {
		return err
	}
	updated.Version++
	if err := r.outbox.write(updated.PendingEvents()); err != nil {
		return err
	}
	updated.ClearEvents()
	r.items[id] = updated
	return nil
}

// ListByGuest returns the guest's bookings, most recently created first.
func (r *BookingRepository) ListByGuest(_ context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for i := len(r.order) - 1; i >= 0; i-- {
		b := r.items[r.order[i]]
		if b.GuestID == guestID {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// activeFor must be called with r.mu held.
func (r *BookingRepository) activeFor(listingID domainlistings.ListingID, overlapping *daterange.DateRange) []*domainbooking.Booking {
	var out []*domainbooking.Booking
	for _, id := range r.order {
		b := r.items[id]
		if b.ListingID != listingID || !b.Status.Active() {
			continue
		}
		if overlapping != nil && !b.Range.Overlaps(*overlapping) {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.CheckIn.Before(out[j].Range.CheckIn)
	})
	return out
}

// lockedReader reads while InsertIfAvailable holds the write lock.
type lockedReader struct {
	r *BookingRepository
}

func (l lockedReader) ListActiveForListing(_ context.Context, listingID domainlistings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return func(yield func(*domainbooking.Booking, error) bool) {
		for _, b := range l.r.activeFor(listingID, overlapping) {
			if !yield(b, nil) {
				return
			}
		}
	}
}

var _ domainbooking.Store = (*BookingRepository)(nil)
