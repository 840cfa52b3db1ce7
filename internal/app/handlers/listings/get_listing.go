package listings

import (
	"context"

	"alxtravel/internal/app/dto"
	"alxtravel/internal/app/queries"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

const GetListingKey = "listings.get"

type GetListingQuery struct {
	ListingID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return GetListingKey }

// GetListingHandler returns a listing with its review count and average rating.
type GetListingHandler struct {
	Listings domainlistings.Store
	Reviews  domainreviews.Store
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingView, error) {
	id := domainlistings.ListingID(q.ListingID)
	listing, err := h.Listings.ByID(ctx, id)
	if err != nil {
		return dto.ListingView{}, err
	}
	stats, err := h.Reviews.Stats(ctx, id)
	if err != nil {
		return dto.ListingView{}, err
	}
	return dto.MapListingView(listing, stats), nil
}

var _ queries.Handler[GetListingQuery, dto.ListingView] = (*GetListingHandler)(nil)
