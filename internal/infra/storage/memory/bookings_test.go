package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/pricing"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/money"
)

func pendingBooking(t *testing.T, id, listing, in, out string) *domainbooking.Booking {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatal(err)
	}
	price, err := pricing.Quote(money.Must(5000, "EUR"), dr)
	if err != nil {
		t.Fatal(err)
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: domainlistings.ListingID(listing),
		GuestID:   "guest-" + id,
		Range:     dr,
		Price:     price,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// noOverlap is the predicate the availability engine builds, inlined to keep the store test self-contained.
func noOverlap(b *domainbooking.Booking) domainbooking.Predicate {
	return func(ctx context.Context, r domainbooking.Reader) (bool, error) {
		for existing, err := range r.ListActiveForListing(ctx, b.ListingID, &b.Range) {
			if err != nil {
				return false, err
			}
			if existing.Range.Overlaps(b.Range) {
				return false, nil
			}
		}
		return true, nil
	}
}

func TestInsertIfAvailableExactlyOneWins(t *testing.T) {
	outbox := NewOutbox()
	repo := NewBookingRepository(outbox)
	ctx := context.Background()

	const n = 32
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		b := pendingBooking(t, fmt.Sprintf("b-%d", i), "l-1", "2030-04-10", "2030-04-14")
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.InsertIfAvailable(ctx, b, noOverlap(b))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domainbooking.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 || conflicts.Load() != n-1 {
		t.Fatalf("expected 1 win and %d conflicts, got %d/%d", n-1, wins.Load(), conflicts.Load())
	}
	if got := len(outbox.Names()); got != 1 {
		t.Fatalf("only the winner may write events, got %d", got)
	}
}

func TestInsertIfAvailableDifferentListingsDoNotContend(t *testing.T) {
	repo := NewBookingRepository(nil)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		b := pendingBooking(t, fmt.Sprintf("b-%d", i), fmt.Sprintf("l-%d", i), "2030-04-10", "2030-04-14")
		if _, err := repo.InsertIfAvailable(ctx, b, noOverlap(b)); err != nil {
			t.Fatalf("listing %d: %v", i, err)
		}
	}
}

func TestInsertIfAvailableRejectsCancelledContext(t *testing.T) {
	repo := NewBookingRepository(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := pendingBooking(t, "b", "l", "2030-04-10", "2030-04-14")
	if _, err := repo.InsertIfAvailable(ctx, b, nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if _, err := repo.ByID(context.Background(), "b"); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatalf("nothing may be written, got %v", err)
	}
}

func TestSetStatusFreesInterval(t *testing.T) {
	outbox := NewOutbox()
	repo := NewBookingRepository(outbox)
	ctx := context.Background()

	first := pendingBooking(t, "first", "l-1", "2030-04-10", "2030-04-14")
	if _, err := repo.InsertIfAvailable(ctx, first, noOverlap(first)); err != nil {
		t.Fatal(err)
	}
	second := pendingBooking(t, "second", "l-1", "2030-04-12", "2030-04-13")
	if _, err := repo.InsertIfAvailable(ctx, second, noOverlap(second)); !errors.Is(err, domainbooking.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := repo.SetStatus(ctx, "first", domainbooking.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetStatus(ctx, "first", domainbooking.StatusCancelled); !errors.Is(err, domainbooking.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	again := pendingBooking(t, "again", "l-1", "2030-04-12", "2030-04-13")
	if _, err := repo.InsertIfAvailable(ctx, again, noOverlap(again)); err != nil {
		t.Fatalf("cancelled booking must free its dates: %v", err)
	}

	stored, err := repo.ByID(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domainbooking.StatusCancelled || stored.Version != 2 {
		t.Fatalf("unexpected stored booking %+v", stored)
	}
	want := []string{"booking.requested", "booking.cancelled", "booking.requested"}
	got := outbox.Names()
	if len(got) != len(want) {
		t.Fatalf("unexpected outbox %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestListActiveForListingOrdersAndFilters(t *testing.T) {
	repo := NewBookingRepository(nil)
	ctx := context.Background()
	for _, b := range []*domainbooking.Booking{
		pendingBooking(t, "c", "l-1", "2030-05-20", "2030-05-22"),
		pendingBooking(t, "a", "l-1", "2030-05-01", "2030-05-03"),
		pendingBooking(t, "b", "l-1", "2030-05-10", "2030-05-12"),
		pendingBooking(t, "x", "l-2", "2030-05-10", "2030-05-12"),
	} {
		if _, err := repo.InsertIfAvailable(ctx, b, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.SetStatus(ctx, "b", domainbooking.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	var ids []domainbooking.BookingID
	for b, err := range repo.ListActiveForListing(ctx, "l-1", nil) {
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "c" {
		t.Fatalf("unexpected active bookings %v", ids)
	}

	window, _ := daterange.Parse("2030-05-02", "2030-05-10")
	ids = ids[:0]
	for b, err := range repo.ListActiveForListing(ctx, "l-1", &window) {
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("unexpected overlapping bookings %v", ids)
	}
}

func TestListByGuestNewestFirst(t *testing.T) {
	repo := NewBookingRepository(nil)
	ctx := context.Background()
	for _, id := range []string{"one", "two"} {
		b := pendingBooking(t, id, "l-"+id, "2030-05-01", "2030-05-03")
		b.GuestID = "g"
		if _, err := repo.InsertIfAvailable(ctx, b, nil); err != nil {
			t.Fatal(err)
		}
	}
	got, err := repo.ListByGuest(ctx, "g")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "two" {
		t.Fatalf("unexpected order %v", got)
	}
}
