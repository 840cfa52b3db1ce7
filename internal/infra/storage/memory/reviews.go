package memory

import (
	"context"
	"sort"
	"sync"

	domainlistings "alxtravel/internal/domain/listings"
	domainreviews "alxtravel/internal/domain/reviews"
)

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu     sync.RWMutex
	items  map[string]*domainreviews.Review
	outbox *Outbox
}

// NewReviewsRepository builds an empty reviews store. outbox may be nil.
func NewReviewsRepository(outbox *Outbox) *ReviewsRepository {
	return &ReviewsRepository{items: make(map[string]*domainreviews.Review), outbox: outbox}
}

func (r *ReviewsRepository) Create(_ context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := listingAuthorKey(review.ListingID, review.AuthorID)
	if _, ok := r.items[key]; ok {
		return domainreviews.ErrDuplicate
	}
	if err := r.outbox.write(review.PendingEvents()); err != nil {
		return err
	}
	review.ClearEvents()
	stored := *review
	r.items[key] = &stored
	return nil
}

// ListByListing pages through reviews newest first. limit <= 0 returns everything after offset.
func (r *ReviewsRepository) ListByListing(_ context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	all := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ListingID == listingID {
			copied := *review
			all = append(all, &copied)
		}
	}
	r.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return []*domainreviews.Review{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *ReviewsRepository) Stats(_ context.Context, listingID domainlistings.ListingID) (domainreviews.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stats domainreviews.Stats
	for _, review := range r.items {
		if review.ListingID == listingID {
			stats.Count++
			stats.RatingSum += review.Rating
		}
	}
	return stats, nil
}

func listingAuthorKey(listingID domainlistings.ListingID, authorID string) string {
	return string(listingID) + ":" + authorID
}

var _ domainreviews.Store = (*ReviewsRepository)(nil)
