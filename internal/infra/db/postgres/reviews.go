package postgres

import (
	"context"

	"gorm.io/gorm"

	domainbooking "alxtravel/internal/domain/booking"
	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

type ReviewRepository struct {
	db     *gorm.DB
	outbox *Outbox
}

func NewReviewRepository(db *gorm.DB, outbox *Outbox) *ReviewRepository {
	return &ReviewRepository{db: db, outbox: outbox}
}

func (r *ReviewRepository) Create(ctx context.Context, review *domainreviews.Review) error {
	row := reviewRow{
		ID:        string(review.ID),
		BookingID: string(review.BookingID),
		ListingID: string(review.ListingID),
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if pgCode(err) == sqlStateUniqueViolation {
				return domainreviews.ErrDuplicate
			}
			return err
		}
		return r.outbox.write(tx, review.PendingEvents())
	})
	if err != nil {
		return translate(err, "create review")
	}
	review.ClearEvents()
	return nil
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	q := r.db.WithContext(ctx).Where("listing_id = ?", string(listingID)).Order("created_at DESC, id")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []reviewRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, translate(err, "list reviews")
	}
	out := make([]*domainreviews.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, &domainreviews.Review{
			ID:        domainreviews.ReviewID(row.ID),
			BookingID: domainbooking.BookingID(row.BookingID),
			ListingID: domainlistings.ListingID(row.ListingID),
			AuthorID:  row.AuthorID,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *ReviewRepository) Stats(ctx context.Context, listingID domainlistings.ListingID) (domainreviews.Stats, error) {
	var agg struct {
		Count int
		Sum   int
	}
	err := r.db.WithContext(ctx).Model(&reviewRow{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum").
		Where("listing_id = ?", string(listingID)).
		Scan(&agg).Error
	if err != nil {
		return domainreviews.Stats{}, translate(err, "review stats")
	}
	return domainreviews.Stats{Count: agg.Count, RatingSum: agg.Sum}, nil
}

var _ domainreviews.Store = (*ReviewRepository)(nil)
