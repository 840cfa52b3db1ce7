package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	listingapp "alxtravel/internal/app/handlers/listings"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/pricing"
	domainreviews "alxtravel/internal/domain/reviews"
	"alxtravel/internal/domain/shared/daterange"
	"alxtravel/internal/domain/shared/money"
	"alxtravel/internal/infra/storage/memory"
)

type env struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	reviews  *memory.ReviewsRepository
	submit   *SubmitReviewHandler
	list     *ListListingReviewsHandler
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	listings := memory.NewListingRepository(nil)
	bookings := memory.NewBookingRepository(nil)
	reviews := memory.NewReviewsRepository(nil)
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID: "l-1", Owner: "host", Title: "Loft", NightlyPrice: money.Must(7000, "EUR"), Now: now,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := listings.Create(context.Background(), listing); err != nil {
		t.Fatal(err)
	}
	return &env{
		listings: listings,
		bookings: bookings,
		reviews:  reviews,
		submit:   &SubmitReviewHandler{Listings: listings, Bookings: bookings, Reviews: reviews, Now: func() time.Time { return now }},
		list:     &ListListingReviewsHandler{Listings: listings, Reviews: reviews},
	}
}

func (e *env) stay(t *testing.T, id, guest, in, out string) {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	if err != nil {
		t.Fatal(err)
	}
	price, _ := pricing.Quote(money.Must(7000, "EUR"), dr)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: domainbooking.BookingID(id), ListingID: "l-1", GuestID: guest, Range: dr, Price: price, CreatedAt: dr.CheckIn,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.bookings.InsertIfAvailable(context.Background(), b, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitRequiresCompletedStay(t *testing.T) {
	now := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	ctx := context.Background()

	_, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "l-1", AuthorID: "g", Rating: 5})
	if !errors.Is(err, domainreviews.ErrNoEligibleStay) {
		t.Fatalf("expected ErrNoEligibleStay, got %v", err)
	}

	e.stay(t, "future", "g", "2030-03-10", "2030-03-12")
	if _, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "l-1", AuthorID: "g", Rating: 5}); !errors.Is(err, domainreviews.ErrNoEligibleStay) {
		t.Fatalf("upcoming stay must not qualify, got %v", err)
	}

	e.stay(t, "past", "g", "2030-02-10", "2030-02-12")
	review, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "l-1", AuthorID: "g", Rating: 5, Comment: "quiet street"})
	if err != nil {
		t.Fatal(err)
	}
	if review.BookingID != "past" || review.Rating != 5 {
		t.Fatalf("unexpected review %+v", review)
	}
	if _, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "l-1", AuthorID: "g", Rating: 4}); !errors.Is(err, domainreviews.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "missing", AuthorID: "g", Rating: 4}); !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReviewsReportsTotals(t *testing.T) {
	now := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	ctx := context.Background()
	ratings := []int{5, 4, 4}
	for i, rating := range ratings {
		guest := fmt.Sprintf("g%d", i)
		in := fmt.Sprintf("2030-02-%02d", 1+i*3)
		out := fmt.Sprintf("2030-02-%02d", 3+i*3)
		e.stay(t, "b-"+guest, guest, in, out)
		if _, err := e.submit.Handle(ctx, SubmitReviewCommand{ListingID: "l-1", AuthorID: guest, Rating: rating}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := e.list.Handle(ctx, ListListingReviewsQuery{ListingID: "l-1", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 2 || page.Count != 3 || page.AverageRating == nil || *page.AverageRating != 4.3 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, item := range page.Items {
		if item.RatingLabel != domainreviews.RatingLabel(item.Rating) || item.RatingLabel == "" {
			t.Fatalf("review %s: unexpected label %q for rating %d", item.ID, item.RatingLabel, item.Rating)
		}
	}

	view, err := (&listingapp.GetListingHandler{Listings: e.listings, Reviews: e.reviews}).Handle(ctx, listingapp.GetListingQuery{ListingID: "l-1"})
	if err != nil {
		t.Fatal(err)
	}
	if view.ReviewsCount != 3 || view.AverageRating == nil || *view.AverageRating != 4.3 {
		t.Fatalf("listing must carry review totals, got %+v", view)
	}
	rest, err := e.list.Handle(ctx, ListListingReviewsQuery{ListingID: "l-1", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest.Items) != 1 || rest.Count != 3 {
		t.Fatalf("unexpected second page %+v", rest)
	}
}

func TestNoReviewsHaveNoAverage(t *testing.T) {
	e := newEnv(t, time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()
	page, err := e.list.Handle(ctx, ListListingReviewsQuery{ListingID: "l-1"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 0 || page.AverageRating != nil || len(page.Items) != 0 {
		t.Fatalf("unexpected empty page %+v", page)
	}
	view, err := (&listingapp.GetListingHandler{Listings: e.listings, Reviews: e.reviews}).Handle(ctx, listingapp.GetListingQuery{ListingID: "l-1"})
	if err != nil {
		t.Fatal(err)
	}
	if view.ReviewsCount != 0 || view.AverageRating != nil {
		t.Fatalf("unexpected listing view %+v", view)
	}
}

func TestOverlongCommentIsRejected(t *testing.T) {
	now := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	e := newEnv(t, now)
	e.stay(t, "past", "g", "2030-02-01", "2030-02-03")
	comment := strings.Repeat("é", domainreviews.MaxCommentLength+1)
	_, err := e.submit.Handle(context.Background(), SubmitReviewCommand{ListingID: "l-1", AuthorID: "g", Rating: 5, Comment: comment})
	if !errors.Is(err, domainreviews.ErrCommentTooLong) {
		t.Fatalf("expected ErrCommentTooLong, got %v", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	for in, want := range map[int]int{0: 20, -1: 20, 5: 5, 500: 100} {
		if got := normalizeLimit(in); got != want {
			t.Fatalf("normalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
