package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"alxtravel/internal/app/commands"
	"alxtravel/internal/app/dto"
	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

const SubmitReviewKey = "reviews.submit"

// SubmitReviewCommand creates the author's review of a listing they stayed at.
type SubmitReviewCommand struct {
	ListingID string `validate:"required"`
	AuthorID  string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Comment   string `validate:"max=2000"`
}

func (c SubmitReviewCommand) Key() string { return SubmitReviewKey }

type SubmitReviewHandler struct {
	Listings domainlistings.Store
	Bookings domainbooking.Store
	Reviews  domainreviews.Store
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	listingID := domainlistings.ListingID(cmd.ListingID)
	if _, err := h.Listings.ByID(ctx, listingID); err != nil {
		return dto.Review{}, err
	}
	stays, err := h.Bookings.ListByGuest(ctx, cmd.AuthorID)
	if err != nil {
		return dto.Review{}, err
	}
	stay, err := domainreviews.EligibleStay(stays, listingID, now)
	if err != nil {
		return dto.Review{}, err
	}

	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(uuid.NewString()),
		BookingID: stay.ID,
		AuthorID:  cmd.AuthorID,
		ListingID: listingID,
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		CreatedAt: now,
	})
	if err != nil {
		return dto.Review{}, err
	}
	if err := h.Reviews.Create(ctx, review); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review submitted", "booking_id", stay.ID, "listing_id", listingID, "author_id", cmd.AuthorID, "rating", cmd.Rating)
	}
	return dto.MapReview(review), nil
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
