package reviews

import (
	"context"
	"log/slog"

	"alxtravel/internal/app/dto"
	"alxtravel/internal/app/queries"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

const ListListingReviewsKey = "reviews.listing.list"

// ListListingReviewsQuery retrieves reviews for a listing.
type ListListingReviewsQuery struct {
	ListingID string `validate:"required"`
	Limit     int
	Offset    int
}

func (q ListListingReviewsQuery) Key() string { return ListListingReviewsKey }

// ListListingReviewsHandler loads a page of reviews plus totals over all of them.
type ListListingReviewsHandler struct {
	Listings domainlistings.Store
	Reviews  domainreviews.Store
	Logger   *slog.Logger
}

func (h *ListListingReviewsHandler) Handle(ctx context.Context, q ListListingReviewsQuery) (dto.ReviewCollection, error) {
	limit := normalizeLimit(q.Limit)
	offset := max(q.Offset, 0)

	listingID := domainlistings.ListingID(q.ListingID)
	if _, err := h.Listings.ByID(ctx, listingID); err != nil {
		return dto.ReviewCollection{}, err
	}
	page, err := h.Reviews.ListByListing(ctx, listingID, limit, offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	stats, err := h.Reviews.Stats(ctx, listingID)
	if err != nil {
		return dto.ReviewCollection{}, err
	}

	items := make([]dto.Review, 0, len(page))
	for _, review := range page {
		items = append(items, dto.MapReview(review))
	}

	if h.Logger != nil {
		h.Logger.Debug("listing reviews listed", "listing_id", listingID, "count", len(items), "total", stats.Count)
	}
	return dto.ReviewCollection{Items: items, Count: stats.Count, AverageRating: stats.Average()}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

var _ queries.Handler[ListListingReviewsQuery, dto.ReviewCollection] = (*ListListingReviewsHandler)(nil)
