package store

import (
	"context"
	"sync"
	"time"

	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"golang.org/x/sync/singleflight"
)

// AnalysisAPI runs the server side fake review analysis
type AnalysisAPI interface {
	AnalyzeAll(ctx context.Context) (*shopapi.AnalysisResult, error)
}

// AnalysisView holds the result of the last analysis run for the admin
// dashboard. Its flagged review list is a snapshot and is not kept in sync
// with the review store beyond deletions made through DeleteFlagged.
type AnalysisView struct {
	api     AnalysisAPI
	reviews *ReviewStore
	now     func() time.Time

	mu      sync.RWMutex
	result  *shopapi.AnalysisResult
	ranAt   time.Time
	loading int
	err     error

	group singleflight.Group
}

func NewAnalysisView(api AnalysisAPI, reviews *ReviewStore) *AnalysisView {
	return &AnalysisView{api: api, reviews: reviews, now: time.Now}
}

// Analyze triggers a run and keeps the full result. Overlapping calls share
// one request.
func (v *AnalysisView) Analyze(ctx context.Context) (*shopapi.AnalysisResult, error) {
	v.mu.Lock()
	v.loading++
	v.mu.Unlock()
	defer func() {
		v.mu.Lock()
		v.loading--
		v.mu.Unlock()
	}()

	_, err := shared(ctx, &v.group, "analyze_all", func(ctx context.Context) (interface{}, error) {
		result, err := v.api.AnalyzeAll(ctx)

		v.mu.Lock()
		defer v.mu.Unlock()
		if err != nil {
			logger.Error("Review analysis failed", err, nil)
			v.err = err
			return nil, err
		}
		v.result = result
		v.ranAt = v.now().UTC()
		v.err = nil

		logger.Info("Review analysis complete", map[string]interface{}{
			"total_analyzed": result.TotalAnalyzed,
			"fake_count":     result.FakeCount,
			"flagged":        len(result.FlaggedReviews),
		})
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return v.Result(), nil
}

// DeleteFlagged deletes a review through the review store, then drops it
// from the flagged list.
func (v *AnalysisView) DeleteFlagged(ctx context.Context, reviewID string) error {
	if err := v.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.result == nil {
		return nil
	}
	kept := make([]shopapi.FlaggedReview, 0, len(v.result.FlaggedReviews))
	for _, f := range v.result.FlaggedReviews {
		if f.ReviewID != reviewID {
			kept = append(kept, f)
		}
	}
	v.result.FlaggedReviews = kept
	return nil
}

// Result returns a deep copy of the last result, or nil before the first run
func (v *AnalysisView) Result() *shopapi.AnalysisResult {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return copyResult(v.result)
}

// RanAt is when the last successful run finished
func (v *AnalysisView) RanAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ranAt
}

func (v *AnalysisView) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading > 0
}

func (v *AnalysisView) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func copyResult(r *shopapi.AnalysisResult) *shopapi.AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.FlaggedUsers = append([]string{}, r.FlaggedUsers...)
	out.FlaggedReviews = make([]shopapi.FlaggedReview, len(r.FlaggedReviews))
	for i, f := range r.FlaggedReviews {
		f.Behavioral.Flags = append([]string{}, f.Behavioral.Flags...)
		out.FlaggedReviews[i] = f
	}
	return &out
}
