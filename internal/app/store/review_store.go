package store

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

// DefaultReviewPageLimit is the review page size
const DefaultReviewPageLimit = 10

// ReviewAPI is the part of the storefront API the review store needs
type ReviewAPI interface {
	ListReviews(ctx context.Context, q shopapi.ReviewQuery) (*shopapi.Page[shopapi.Review], error)
	GetReview(ctx context.Context, id string) (*shopapi.Review, error)
	CreateReview(ctx context.Context, review shopapi.NewReview) (string, error)
	UpdateReview(ctx context.Context, id string, update shopapi.ReviewUpdate) error
	DeleteReview(ctx context.Context, id string) error
}

// ReviewStore holds one visitor's review listing, optionally filtered by
// product, plus the single review slot.
type ReviewStore struct {
	api   ReviewAPI
	limit int
	now   func() time.Time

	list     pagedList[shopapi.Review]
	single   entitySlot[shopapi.Review]
	mutating atomic.Int32
}

func NewReviewStore(api ReviewAPI, limit int) *ReviewStore {
	if limit <= 0 {
		limit = DefaultReviewPageLimit
	}
	return &ReviewStore{
		api:    api,
		limit:  limit,
		now:    time.Now,
		list:   pagedList[shopapi.Review]{name: "reviews"},
		single: entitySlot[shopapi.Review]{name: "review"},
	}
}

// Fetch loads reviews for productID ("" for all). Reset, or a change of
// product, starts from the first page.
func (s *ReviewStore) Fetch(ctx context.Context, productID string, reset bool) error {
	return s.list.fetch(ctx, productID, reset, func(ctx context.Context, filter, cursor string) (*shopapi.Page[shopapi.Review], error) {
		return s.api.ListReviews(ctx, shopapi.ReviewQuery{ProductID: filter, Limit: s.limit, Cursor: cursor})
	})
}

// FetchByID replaces the single review slot.
func (s *ReviewStore) FetchByID(ctx context.Context, id string) (*shopapi.Review, error) {
	return s.single.fetch(ctx, id, s.api.GetReview)
}

// Add creates a review and prepends it with a locally generated timestamp.
func (s *ReviewStore) Add(ctx context.Context, review shopapi.NewReview) (*shopapi.Review, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}

	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	id, err := s.api.CreateReview(ctx, review)
	if err == nil && id == "" {
		err = shopapi.ErrMissingID
	}
	if err != nil {
		logger.Error("Failed to add review", err, map[string]interface{}{
			"product_id": review.ProductID,
		})
		return nil, err
	}

	created := shopapi.Review{
		ID:         id,
		ProductID:  review.ProductID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		ReviewText: review.ReviewText,
		Timestamp:  s.now().UTC(),
	}
	// Only a listing that would contain the review gets it.
	s.list.mutateIf(func(filter string) bool {
		return filter == "" || filter == review.ProductID
	}, func(items []shopapi.Review) []shopapi.Review {
		return append([]shopapi.Review{created}, items...)
	})

	logger.Info("Review added", map[string]interface{}{
		"review_id":  id,
		"product_id": review.ProductID,
	})
	return &created, nil
}

// Update sends a partial update and merges it into the local copies. The
// merged record is returned when the review is held locally.
func (s *ReviewStore) Update(ctx context.Context, id string, update shopapi.ReviewUpdate) (*shopapi.Review, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	if err := s.api.UpdateReview(ctx, id, update); err != nil {
		logger.Error("Failed to update review", err, map[string]interface{}{
			"review_id": id,
		})
		return nil, err
	}

	var merged *shopapi.Review
	s.list.mutate(func(items []shopapi.Review) []shopapi.Review {
		for i := range items {
			if items[i].ID == id {
				update.Apply(&items[i])
				r := items[i]
				merged = &r
			}
		}
		return items
	})
	s.single.update(func(r *shopapi.Review) bool {
		if r.ID == id {
			update.Apply(r)
			if merged == nil {
				copied := *r
				merged = &copied
			}
		}
		return true
	})
	return merged, nil
}

// Delete removes a review remotely, then locally.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	s.mutating.Add(1)
	defer s.mutating.Add(-1)

	if err := s.api.DeleteReview(ctx, id); err != nil {
		logger.Error("Failed to delete review", err, map[string]interface{}{
			"review_id": id,
		})
		return err
	}

	s.list.mutate(func(items []shopapi.Review) []shopapi.Review {
		kept := items[:0]
		for _, r := range items {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		return kept
	})
	s.single.update(func(r *shopapi.Review) bool {
		return r.ID != id
	})

	logger.Info("Review deleted", map[string]interface{}{
		"review_id": id,
	})
	return nil
}

// Reviews returns a copy of the loaded reviews
func (s *ReviewStore) Reviews() []shopapi.Review {
	return s.list.snapshot()
}

// Review returns the last review fetched by id, or nil
func (s *ReviewStore) Review() *shopapi.Review {
	r, _ := s.single.get()
	return r
}

// ProductID is the product the current listing is filtered by
func (s *ReviewStore) ProductID() string {
	return s.list.currentFilter()
}

func (s *ReviewStore) HasMore() bool {
	return s.list.hasMore()
}

func (s *ReviewStore) Loading() bool {
	return s.list.loading() || s.single.loading() || s.mutating.Load() > 0
}

// Err returns the last list fetch failure
func (s *ReviewStore) Err() error {
	return s.list.lastErr()
}
