package dto

import (
	"time"

	domainreviews "alxtravel/internal/domain/reviews"
)

// Review represents a public review payload.
type Review struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"booking_id"`
	ListingID   string    `json:"listing_id"`
	AuthorID    string    `json:"author_id"`
	Rating      int       `json:"rating"`
	RatingLabel string    `json:"rating_label"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReviewCollection carries AverageRating as null while a listing has no reviews.
type ReviewCollection struct {
	Items         []Review `json:"items"`
	Count         int      `json:"count"`
	AverageRating *float64 `json:"average_rating"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:          string(review.ID),
		BookingID:   string(review.BookingID),
		ListingID:   string(review.ListingID),
		AuthorID:    review.AuthorID,
		Rating:      review.Rating,
		RatingLabel: domainreviews.RatingLabel(review.Rating),
		Comment:     review.Comment,
		CreatedAt:   review.CreatedAt,
	}
}
