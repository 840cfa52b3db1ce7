package availability

import (
	"context"
	"errors"
	"iter"
	"testing"

	"alxtravel/internal/domain/booking"
	"alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/money"
)

type sliceReader struct {
	bookings []*booking.Booking
	err      error
}

func (r sliceReader) ListActiveForListing(_ context.Context, listingID listings.ListingID, overlapping *daterange.DateRange) iter.Seq2[*booking.Booking, error] {
	return func(yield func(*booking.Booking, error) bool) {
		if r.err != nil {
			yield(nil, r.err)
			return
		}
		for _, b := range r.bookings {
			if b.ListingID != listingID || !b.Status.Active() {
				continue
			}
			if overlapping != nil && !b.Range.Overlaps(*overlapping) {
				continue
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

type listingMap map[listings.ListingID]*listings.Listing

func (m listingMap) ByID(_ context.Context, id listings.ListingID) (*listings.Listing, error) {
	if l, ok := m[id]; ok {
		return l, nil
	}
	return nil, listings.ErrNotFound
}

func rng(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func held(t *testing.T, id string, status booking.Status, in, out string) *booking.Booking {
	return &booking.Booking{ID: booking.BookingID(id), ListingID: "l-1", Range: rng(t, in, out), Status: status}
}

func TestIsAvailable(t *testing.T) {
	reader := sliceReader{bookings: []*booking.Booking{
		held(t, "a", booking.StatusConfirmed, "2030-01-10", "2030-01-12"),
		held(t, "b", booking.StatusCancelled, "2030-01-20", "2030-01-25"),
		held(t, "c", booking.StatusPending, "2030-02-01", "2030-02-03"),
	}}
	engine := NewEngine(reader, listingMap{})
	ctx := context.Background()

	cases := []struct {
		name    string
		in, out string
		want    bool
	}{
		{"back to back after", "2030-01-12", "2030-01-14", true},
		{"back to back before", "2030-01-08", "2030-01-10", true},
		{"overlap confirmed", "2030-01-11", "2030-01-13", false},
		{"cancelled frees dates", "2030-01-21", "2030-01-23", true},
		{"pending holds dates", "2030-02-02", "2030-02-04", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dr := rng(t, tc.in, tc.out)
			got, err := engine.IsAvailable(ctx, "l-1", dr.CheckIn, dr.CheckOut)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("IsAvailable(%s) = %v, want %v", dr, got, tc.want)
			}
		})
	}

	other, err := engine.IsAvailable(ctx, "l-2", rng(t, "2030-01-10", "2030-01-12").CheckIn, rng(t, "2030-01-10", "2030-01-12").CheckOut)
	if err != nil || !other {
		t.Fatalf("other listings must not contend: %v %v", other, err)
	}
}

func TestIsAvailableRejectsInvalidRange(t *testing.T) {
	engine := NewEngine(sliceReader{}, listingMap{})
	dr := rng(t, "2030-01-10", "2030-01-12")
	if _, err := engine.IsAvailable(context.Background(), "l-1", dr.CheckOut, dr.CheckIn); !errors.Is(err, daterange.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestPredicatePropagatesReaderError(t *testing.T) {
	boom := errors.New("boom")
	engine := NewEngine(sliceReader{}, listingMap{})
	ok, err := engine.Predicate("l-1", rng(t, "2030-01-10", "2030-01-12"))(context.Background(), sliceReader{err: boom})
	if ok || !errors.Is(err, boom) {
		t.Fatalf("expected reader error, got ok=%v err=%v", ok, err)
	}
}

func TestComputePrice(t *testing.T) {
	ls := listingMap{"l-1": {ID: "l-1", NightlyPrice: money.Must(8000, "EUR"), Active: true}}
	engine := NewEngine(sliceReader{}, ls)
	dr := rng(t, "2030-01-10", "2030-01-15")
	b, err := engine.ComputePrice(context.Background(), "l-1", dr.CheckIn, dr.CheckOut)
	if err != nil {
		t.Fatal(err)
	}
	if b.Nights != 5 || b.Total.Amount != 40000 {
		t.Fatalf("unexpected breakdown %+v", b)
	}
	if _, err := engine.ComputePrice(context.Background(), "missing", dr.CheckIn, dr.CheckOut); !errors.Is(err, listings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFreeRanges(t *testing.T) {
	reader := sliceReader{bookings: []*booking.Booking{
		held(t, "a", booking.StatusConfirmed, "2030-01-05", "2030-01-08"),
		held(t, "b", booking.StatusCancelled, "2030-01-10", "2030-01-12"),
		held(t, "c", booking.StatusPending, "2030-01-08", "2030-01-09"),
	}}
	engine := NewEngine(reader, listingMap{})
	window := rng(t, "2030-01-01", "2030-01-15")
	free, err := engine.FreeRanges(context.Background(), "l-1", window.CheckIn, window.CheckOut)
	if err != nil {
		t.Fatal(err)
	}
	want := []daterange.DateRange{rng(t, "2030-01-01", "2030-01-05"), rng(t, "2030-01-09", "2030-01-15")}
	if len(free) != len(want) || free[0] != want[0] || free[1] != want[1] {
		t.Fatalf("unexpected free ranges %v", free)
	}
}
