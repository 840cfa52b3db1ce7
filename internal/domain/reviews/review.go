package reviews

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"alxtravel/internal/domain/booking"
	"alxtravel/internal/domain/listings"
	"alxtravel/internal/domain/shared/events"
	"alxtravel/internal/domain/shared/fault"
)

var (
	ErrInvalidRating  = fault.New(fault.InvalidArgument, "reviews: rating must be between 1 and 5")
	ErrNotFound       = fault.New(fault.NotFound, "reviews: not found")
	ErrDuplicate      = fault.New(fault.Conflict, "reviews: author already reviewed this listing")
	ErrNoEligibleStay = fault.New(fault.Forbidden, "reviews: author has no completed stay at this listing")
	ErrAuthorRequired = fault.New(fault.InvalidArgument, "reviews: author is required")
	ErrCommentTooLong = fault.New(fault.InvalidArgument, "reviews: comment may hold at most 2000 characters")
)

// MaxCommentLength counts characters, not bytes.
const MaxCommentLength = 2000

var ratingLabels = [...]string{1: "Terrible", 2: "Poor", 3: "Average", 4: "Good", 5: "Excellent"}

// RatingLabel names a 1..5 rating; out-of-range ratings have no label.
func RatingLabel(rating int) string {
	if rating < 1 || rating >= len(ratingLabels) {
		return ""
	}
	return ratingLabels[rating]
}

type ReviewID string

type Review struct {
	ID        ReviewID
	BookingID booking.BookingID
	AuthorID  string
	ListingID listings.ListingID
	Rating    int
	Comment   string
	CreatedAt time.Time
	events.EventRecorder
}

// Store keeps at most one review per (listing, author); Create returns ErrDuplicate otherwise.
type Store interface {
	Create(ctx context.Context, review *Review) error
	ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, error)
	Stats(ctx context.Context, listingID listings.ListingID) (Stats, error)
}

// Stats aggregates every review of a listing, independent of paging.
type Stats struct {
	Count     int
	RatingSum int
}

// Average is the mean rating rounded half-up to one decimal, or nil without reviews.
func (s Stats) Average() *float64 {
	if s.Count == 0 {
		return nil
	}
	avg := math.Floor(float64(s.RatingSum)*10/float64(s.Count)+0.5) / 10
	return &avg
}

type SubmitParams struct {
	ID        ReviewID
	BookingID booking.BookingID
	AuthorID  string
	ListingID listings.ListingID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	author := strings.TrimSpace(params.AuthorID)
	if author == "" {
		return nil, ErrAuthorRequired
	}
	comment := strings.TrimSpace(params.Comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}
	review := &Review{
		ID:        params.ID,
		BookingID: params.BookingID,
		AuthorID:  author,
		ListingID: params.ListingID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, BookingID: review.BookingID, ListingID: review.ListingID, Rating: review.Rating, At: review.CreatedAt})
	return review, nil
}

// EligibleStay picks a booking of author on listing that is not cancelled and has already ended.
func EligibleStay(bookings []*booking.Booking, listingID listings.ListingID, now time.Time) (*booking.Booking, error) {
	for _, b := range bookings {
		if b.ListingID != listingID || b.Status == booking.StatusCancelled {
			continue
		}
		if !b.Range.CheckOut.After(now) {
			return b, nil
		}
	}
	return nil, ErrNoEligibleStay
}
