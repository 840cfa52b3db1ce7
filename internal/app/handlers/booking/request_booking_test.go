package booking

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/middleware"
	"alxtravel/internal/domain/availability"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/fault"
	"alxtravel/internal/domain/shared/money"
	"alxtravel/internal/infra/storage/memory"
	"alxtravel/internal/mocks"
)

var testNow = time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	outbox   *memory.Outbox
	request  *RequestBookingHandler
	cancel   *CancelBookingHandler
	seq      atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	outbox := memory.NewOutbox()
	f := &fixture{
		listings: memory.NewListingRepository(outbox),
		bookings: memory.NewBookingRepository(outbox),
		outbox:   outbox,
	}
	f.request = &RequestBookingHandler{
		Listings: f.listings,
		Bookings: f.bookings,
		Engine:   availability.NewEngine(f.bookings, f.listings),
		Now:      func() time.Time { return testNow },
		NewID: func() string {
			return fmt.Sprintf("bk-%03d", f.seq.Add(1))
		},
	}
	f.cancel = &CancelBookingHandler{Listings: f.listings, Bookings: f.bookings}
	f.addListing(t, "l-1", 10000)
	return f
}

func (f *fixture) addListing(t *testing.T, id string, nightly int64) {
	t.Helper()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:           domainlistings.ListingID(id),
		Owner:        "host",
		Title:        "Flat " + id,
		NightlyPrice: money.Must(nightly, "EUR"),
		Now:          testNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.listings.Create(context.Background(), listing); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) book(listing, guest, in, out string) (*RequestBookingResult, error) {
	cmd := RequestBookingCommand{ListingID: listing, GuestID: guest, CheckIn: day(in), CheckOut: day(out)}
	return f.request.Handle(context.Background(), cmd)
}

func day(s string) time.Time {
	t, err := time.Parse(daterange.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRequestBookingBackToBackAndOverlap(t *testing.T) {
	f := newFixture(t)
	first, err := f.book("l-1", "g1", "2030-02-10", "2030-02-12")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != string(domainbooking.StatusConfirmed) || first.Nights != 2 || first.Total.Amount != 20000 {
		t.Fatalf("unexpected result %+v", first)
	}
	if _, err := f.book("l-1", "g2", "2030-02-12", "2030-02-14"); err != nil {
		t.Fatalf("back-to-back stay must be accepted: %v", err)
	}
	if _, err := f.book("l-1", "g3", "2030-02-08", "2030-02-10"); err != nil {
		t.Fatalf("stay ending on check-in must be accepted: %v", err)
	}
	_, err = f.book("l-1", "g4", "2030-02-11", "2030-02-13")
	if !errors.Is(err, domainbooking.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !fault.Is(err, fault.Conflict) {
		t.Fatalf("expected Conflict kind, got %s", fault.KindOf(err))
	}
}

func (f *fixture) activeBookings(t *testing.T, listing string) []*domainbooking.Booking {
	t.Helper()
	var out []*domainbooking.Booking
	for b, err := range f.bookings.ListActiveForListing(context.Background(), domainlistings.ListingID(listing), nil) {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, b)
	}
	return out
}

func TestConcurrentRequestsExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	const n = 32
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		wins      atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(guest string) {
			defer wg.Done()
			<-start
			_, err := f.book("l-1", guest, "2030-05-01", "2030-05-05")
			switch {
			case err == nil:
				wins.Add(1)
			case fault.Is(err, fault.Conflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(fmt.Sprintf("g%d", i))
	}
	close(start)
	wg.Wait()
	if wins.Load() != 1 || conflicts.Load() != n-1 {
		t.Fatalf("expected 1 win and %d conflicts, got %d and %d", n-1, wins.Load(), conflicts.Load())
	}
	if got := len(f.activeBookings(t, "l-1")); got != 1 {
		t.Fatalf("expected one stored booking, got %d", got)
	}
}

func TestIdempotencyKeyBelongsToGuest(t *testing.T) {
	f := newFixture(t)
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, RequestBookingKey, f.request)
	chain := middleware.ChainCommands(bus, middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil))
	ctx := context.Background()
	request := func(guest, in, out string) (*RequestBookingResult, error) {
		cmd := RequestBookingCommand{ListingID: "l-1", GuestID: guest, CheckIn: day(in), CheckOut: day(out), IdempotencyKeyV: "k"}
		return commands.Dispatch[RequestBookingCommand, *RequestBookingResult](ctx, chain, cmd)
	}

	alice, err := request("alice", "2030-02-10", "2030-02-12")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := request("bob", "2030-03-10", "2030-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if bob.BookingID == alice.BookingID || bob.Nights != 5 {
		t.Fatalf("bob must get his own booking, got %+v (alice %s)", bob, alice.BookingID)
	}
	if got := len(f.activeBookings(t, "l-1")); got != 2 {
		t.Fatalf("expected two stored bookings, got %d", got)
	}

	again, err := request("alice", "2030-02-10", "2030-02-12")
	if err != nil || again.BookingID != alice.BookingID {
		t.Fatalf("same request must replay alice's booking, got %+v err=%v", again, err)
	}
	if _, err := request("alice", "2030-04-01", "2030-04-03"); !errors.Is(err, middleware.ErrIdempotencyMismatch) {
		t.Fatalf("expected ErrIdempotencyMismatch for other dates, got %v", err)
	}
	if got := len(f.activeBookings(t, "l-1")); got != 2 {
		t.Fatalf("a mismatched key must not book, got %d bookings", got)
	}
}

func TestRequestBookingRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name    string
		listing string
		in, out string
		kind    fault.Kind
	}{
		{"inverted", "l-1", "2030-02-12", "2030-02-10", fault.InvalidArgument},
		{"empty", "l-1", "2030-02-12", "2030-02-12", fault.InvalidArgument},
		{"past", "l-1", "2029-12-30", "2030-01-03", fault.InvalidArgument},
		{"unknown listing", "nope", "2030-02-10", "2030-02-12", fault.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.book(tc.listing, "g", tc.in, tc.out)
			if fault.KindOf(err) != tc.kind {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
	if _, err := f.book("l-1", "g", "2030-01-01", "2030-01-02"); err != nil {
		t.Fatalf("check-in today must be accepted: %v", err)
	}
}

func TestRequestBookingInactiveListing(t *testing.T) {
	f := newFixture(t)
	if err := f.listings.SetActive(context.Background(), "l-1", false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.book("l-1", "g", "2030-02-10", "2030-02-12"); !errors.Is(err, domainlistings.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestInvalidRangeNeverTouchesStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	listings := mocks.NewMockListingStore(ctrl)
	bookings := mocks.NewMockBookingStore(ctrl)
	h := &RequestBookingHandler{
		Listings: listings,
		Bookings: bookings,
		Engine:   availability.NewEngine(bookings, listings),
		Now:      func() time.Time { return testNow },
	}
	cmd := RequestBookingCommand{ListingID: "l-1", GuestID: "g", CheckIn: day("2030-02-12"), CheckOut: day("2030-02-10")}
	if _, err := h.Handle(context.Background(), cmd); !errors.Is(err, daterange.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func emptySeq(context.Context, domainlistings.ListingID, *daterange.DateRange) iter.Seq2[*domainbooking.Booking, error] {
	return func(func(*domainbooking.Booking, error) bool) {}
}

func TestCommitSurvivesCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	listings := mocks.NewMockListingStore(ctrl)
	bookings := mocks.NewMockBookingStore(ctrl)
	listing := &domainlistings.Listing{ID: "l-1", Owner: "host", NightlyPrice: money.Must(100, "EUR"), Active: true}

	listings.EXPECT().ByID(gomock.Any(), domainlistings.ListingID("l-1")).Return(listing, nil).Times(2)
	bookings.EXPECT().ListActiveForListing(gomock.Any(), domainlistings.ListingID("l-1"), gomock.Any()).DoAndReturn(emptySeq)
	bookings.EXPECT().InsertIfAvailable(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, b *domainbooking.Booking, _ domainbooking.Predicate) (domainbooking.BookingID, error) {
			if ctx.Err() != nil {
				t.Errorf("commit context must not inherit caller cancellation: %v", ctx.Err())
			}
			if _, ok := ctx.Deadline(); !ok {
				t.Error("commit context must carry a deadline")
			}
			return b.ID, nil
		})

	h := &RequestBookingHandler{
		Listings:     listings,
		Bookings:     bookings,
		Engine:       availability.NewEngine(bookings, listings),
		StoreTimeout: time.Second,
		Now:          func() time.Time { return testNow },
		NewID:        func() string { return "bk-1" },
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := RequestBookingCommand{ListingID: "l-1", GuestID: "g", CheckIn: day("2030-02-10"), CheckOut: day("2030-02-11")}
	if _, err := h.Handle(ctx, cmd); err != nil {
		t.Fatal(err)
	}
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"cancelled", context.Canceled},
		{"deadline", context.DeadlineExceeded},
		{"driver", fault.Wrap(fault.Unavailable, errors.New("connection reset"), "store")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			listings := mocks.NewMockListingStore(ctrl)
			bookings := mocks.NewMockBookingStore(ctrl)
			listing := &domainlistings.Listing{ID: "l-1", Owner: "host", NightlyPrice: money.Must(100, "EUR"), Active: true}
			listings.EXPECT().ByID(gomock.Any(), gomock.Any()).Return(listing, nil).AnyTimes()
			bookings.EXPECT().ListActiveForListing(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(emptySeq)
			bookings.EXPECT().InsertIfAvailable(gomock.Any(), gomock.Any(), gomock.Any()).Return(domainbooking.BookingID(""), tc.err)

			h := &RequestBookingHandler{
				Listings: listings,
				Bookings: bookings,
				Engine:   availability.NewEngine(bookings, listings),
				Now:      func() time.Time { return testNow },
			}
			cmd := RequestBookingCommand{ListingID: "l-1", GuestID: "g", CheckIn: day("2030-02-10"), CheckOut: day("2030-02-11")}
			_, err := h.Handle(context.Background(), cmd)
			if !fault.Is(err, fault.Unavailable) || !fault.KindOf(err).Retryable() {
				t.Fatalf("expected retryable Unavailable, got %v (%s)", err, fault.KindOf(err))
			}
		})
	}
}

func TestPriceSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	res, err := f.book("l-1", "g", "2030-03-01", "2030-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.listings.UpdatePrice(context.Background(), "l-1", money.Must(99900, "EUR")); err != nil {
		t.Fatal(err)
	}
	stored, err := f.bookings.ByID(context.Background(), domainbooking.BookingID(res.BookingID))
	if err != nil {
		t.Fatal(err)
	}
	if stored.Total.Amount != 30000 || stored.Nightly.Amount != 10000 {
		t.Fatalf("stored price changed: %+v", stored)
	}
	quote, err := f.request.Engine.ComputePrice(context.Background(), "l-1", day("2030-03-01"), day("2030-03-04"))
	if err != nil {
		t.Fatal(err)
	}
	if quote.Total.Amount != 299700 {
		t.Fatalf("new quotes must use the new price, got %+v", quote)
	}
}

func TestCancellationFreesDates(t *testing.T) {
	f := newFixture(t)
	res, err := f.book("l-1", "g", "2030-03-01", "2030-03-04")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := f.cancel.Handle(ctx, CancelBookingCommand{BookingID: res.BookingID, RequesterID: "stranger"}); !errors.Is(err, domainbooking.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	out, err := f.cancel.Handle(ctx, CancelBookingCommand{BookingID: res.BookingID, RequesterID: "host"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != string(domainbooking.StatusCancelled) {
		t.Fatalf("unexpected status %s", out.Status)
	}
	if _, err := f.cancel.Handle(ctx, CancelBookingCommand{BookingID: res.BookingID, RequesterID: "g"}); !errors.Is(err, domainbooking.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
	if _, err := f.book("l-1", "g2", "2030-03-02", "2030-03-03"); err != nil {
		t.Fatalf("dates must be free after cancellation: %v", err)
	}
	if _, err := f.cancel.Handle(ctx, CancelBookingCommand{BookingID: "missing", RequesterID: "g"}); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRandomRequestsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	f.addListing(t, "l-2", 5000)
	rnd := rand.New(rand.NewSource(7))
	base := day("2030-02-01")
	type held struct {
		id      string
		listing string
		r       daterange.DateRange
	}
	var active []held
	ctx := context.Background()

	for step := 0; step < 400; step++ {
		if len(active) > 0 && rnd.Intn(4) == 0 {
			i := rnd.Intn(len(active))
			victim := active[i]
			if _, err := f.cancel.Handle(ctx, CancelBookingCommand{BookingID: victim.id, RequesterID: "host"}); err != nil {
				t.Fatalf("step %d: cancel %s: %v", step, victim.id, err)
			}
			active = append(active[:i], active[i+1:]...)
			continue
		}
		listing := []string{"l-1", "l-2"}[rnd.Intn(2)]
		in := base.AddDate(0, 0, rnd.Intn(60))
		out := in.AddDate(0, 0, 1+rnd.Intn(6))
		requested := daterange.DateRange{CheckIn: in, CheckOut: out}

		free := true
		for _, h := range active {
			if h.listing == listing && h.r.Overlaps(requested) {
				free = false
				break
			}
		}
		res, err := f.request.Handle(ctx, RequestBookingCommand{ListingID: listing, GuestID: "g", CheckIn: in, CheckOut: out})
		switch {
		case free && err != nil:
			t.Fatalf("step %d: %s on %s should be free: %v", step, requested, listing, err)
		case !free && !errors.Is(err, domainbooking.ErrConflict):
			t.Fatalf("step %d: %s on %s should conflict, got %v", step, requested, listing, err)
		case free:
			active = append(active, held{id: res.BookingID, listing: listing, r: requested})
		}
	}

	for _, listing := range []domainlistings.ListingID{"l-1", "l-2"} {
		var stored []*domainbooking.Booking
		for b, err := range f.bookings.ListActiveForListing(ctx, listing, nil) {
			if err != nil {
				t.Fatal(err)
			}
			stored = append(stored, b)
		}
		for i := 1; i < len(stored); i++ {
			if stored[i-1].Range.Overlaps(stored[i].Range) {
				t.Fatalf("active bookings overlap: %s and %s", stored[i-1].Range, stored[i].Range)
			}
		}
	}
}
