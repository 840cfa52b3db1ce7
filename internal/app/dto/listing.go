package dto

import (
	"time"

	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

type ListingDTO struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	NightlyPrice MoneyDTO  `json:"nightly_price"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func MapListing(l *domainlistings.Listing) ListingDTO {
	return ListingDTO{
		ID:           string(l.ID),
		Owner:        string(l.Owner),
		Title:        l.Title,
		Description:  l.Description,
		Location:     l.Location,
		NightlyPrice: MapMoney(l.NightlyPrice),
		Active:       l.Active,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// ListingView is the public read model of a listing with its review totals.
type ListingView struct {
	ListingDTO
	ReviewsCount  int      `json:"reviews_count"`
	AverageRating *float64 `json:"average_rating"`
}

func MapListingView(l *domainlistings.Listing, stats domainreviews.Stats) ListingView {
	return ListingView{
		ListingDTO:    MapListing(l),
		ReviewsCount:  stats.Count,
		AverageRating: stats.Average(),
	}
}
