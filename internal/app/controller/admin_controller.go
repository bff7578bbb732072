package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopsphere-storefront/internal/errors"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	ws "github.com/ikkim/shopsphere-storefront/internal/websocket"
)

// Publisher pushes events to open admin dashboards
type Publisher interface {
	Publish(ev ws.Event) error
}

type AdminController struct {
	events Publisher
}

func NewAdminController(events Publisher) *AdminController {
	return &AdminController{events: events}
}

// Dashboard renders the admin shell with its sidebar
// GET /admin
func (ctrl *AdminController) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageAdmin, newPageData(c, "Admin"))
}

// ListReviews renders every review for moderation. The first visit resets
// the list, ?more=1 appends the next page.
// GET /admin/reviews
func (ctrl *AdminController) ListReviews(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	status := http.StatusOK
	data := newPageData(c, "All Reviews")

	// The review store is shared with product pages, so keep only applies
	// when it still holds the unfiltered listing.
	if !keepState(c) || st.Reviews.ProductID() != "" {
		if err := st.Reviews.Fetch(c.Request.Context(), "", !loadMore(c)); err != nil {
			log.Error("Failed to fetch reviews", err, nil)
			info := apperrors.ParseError(err, "reviews")
			status = info.Status
			data.Error = info.Message
		}
	}

	if st.Reviews.ProductID() == "" {
		data.Reviews = st.Reviews.Reviews()
		data.HasMore = st.Reviews.HasMore()
	}
	data.Loading = st.Reviews.Loading()
	c.HTML(status, view.PageAdminReviews, data)
}

// DeleteReview deletes a review and returns to the listing
// POST /admin/reviews/:reviewId/delete
func (ctrl *AdminController) DeleteReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)
	reviewID := c.Param("reviewId")

	if err := st.Reviews.Delete(c.Request.Context(), reviewID); err != nil {
		log.Warn("Failed to delete review", map[string]interface{}{
			"review_id": reviewID,
			"error":     err.Error(),
		})
		flashError(c, apperrors.ParseError(err, "review delete").Message)
		redirect(c, "/admin/reviews?keep=1")
		return
	}

	log.Info("Review deleted", map[string]interface{}{
		"review_id": reviewID,
	})
	publishReviewDeleted(ctrl.events, reviewID)
	flash(c, "Review deleted")
	redirect(c, "/admin/reviews?keep=1")
}

func publishReviewDeleted(events Publisher, reviewID string) {
	if events == nil {
		return
	}
	_ = events.Publish(ws.Event{
		Type: ws.EventReviewDeleted,
		Data: map[string]string{"review_id": reviewID},
	})
}
