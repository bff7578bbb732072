package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopsphere-storefront/internal/errors"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

type ProductController struct{}

func NewProductController() *ProductController {
	return &ProductController{}
}

// Home renders the landing page
// GET /
func (ctrl *ProductController) Home(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageHome, newPageData(c, "Home"))
}

// ListProducts renders the product grid. The first visit resets the list,
// ?more=1 appends the next page.
// GET /products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	status := http.StatusOK
	data := newPageData(c, "Products")

	if err := st.Products.Fetch(c.Request.Context(), !loadMore(c)); err != nil {
		log.Error("Failed to fetch products", err, map[string]interface{}{
			"more": loadMore(c),
		})
		info := apperrors.ParseError(err, "products")
		status = info.Status
		data.Error = info.Message
	}

	data.Products = st.Products.Products()
	data.HasMore = st.Products.HasMore()
	data.Loading = st.Products.Loading()

	log.Debug("Products page rendered", map[string]interface{}{
		"count":    len(data.Products),
		"has_more": data.HasMore,
	})
	c.HTML(status, view.PageProducts, data)
}

// GetProduct renders one product with its reviews. Reviews reset on each
// visit, ?more=1 appends the next page.
// GET /product/:productId
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)
	productID := strings.TrimSpace(c.Param("productId"))

	product, err := st.Products.FetchByID(c.Request.Context(), productID)
	if err != nil {
		log.Warn("Failed to fetch product", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		renderError(c, err, "product")
		return
	}

	data := newPageData(c, product.Name)
	data.Product = product

	if !keepState(c) || st.Reviews.ProductID() != productID {
		if err := st.Reviews.Fetch(c.Request.Context(), productID, !loadMore(c)); err != nil {
			log.Error("Failed to fetch reviews", err, map[string]interface{}{
				"product_id": productID,
			})
			data.Error = apperrors.ParseError(err, "reviews").Message
		}
	}

	ctrl.fillReviews(&data, c, productID)
	c.HTML(http.StatusOK, view.PageProduct, data)
}

// CreateReview posts a review for the product as the logged in visitor
// POST /product/:productId/reviews
func (ctrl *ProductController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)
	productID := strings.TrimSpace(c.Param("productId"))

	userID := st.User.UserID()
	if userID == "" {
		flash(c, "Please log in to write a review")
		redirect(c, "/login")
		return
	}

	form := map[string]string{
		"rating":      c.PostForm("rating"),
		"review_text": c.PostForm("review_text"),
	}

	rating, err := strconv.Atoi(strings.TrimSpace(form["rating"]))
	if err != nil {
		err = fmt.Errorf("%w: rating must be between 1 and 5", shopapi.ErrInvalidInput)
	}
	if err == nil {
		_, err = st.Reviews.Add(c.Request.Context(), shopapi.NewReview{
			ProductID:  productID,
			UserID:     userID,
			Rating:     rating,
			ReviewText: form["review_text"],
		})
	}
	if err != nil {
		log.Warn("Failed to create review", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		ctrl.renderReviewFailure(c, productID, form, err)
		return
	}

	log.Info("Review created", map[string]interface{}{
		"product_id": productID,
		"user_id":    userID,
	})
	flash(c, "Thanks! Your review was posted")
	redirect(c, "/product/"+url.PathEscape(productID)+"?keep=1")
}

// renderReviewFailure re-renders the product page with the form values and
// the error, leaving the review list as it was.
func (ctrl *ProductController) renderReviewFailure(c *gin.Context, productID string, form map[string]string, err error) {
	st := state(c)
	info := apperrors.ParseError(err, "review create")

	product := st.Products.Product()
	if product == nil || product.ID != productID {
		p, fetchErr := st.Products.FetchByID(c.Request.Context(), productID)
		if fetchErr != nil {
			renderError(c, fetchErr, "product")
			return
		}
		product = p
	}

	data := newPageData(c, product.Name)
	data.Product = product
	data.Error = info.Message
	data.Form = form
	ctrl.fillReviews(&data, c, productID)
	c.HTML(info.Status, view.PageProduct, data)
}

func (ctrl *ProductController) fillReviews(data *view.PageData, c *gin.Context, productID string) {
	st := state(c)
	if st.Reviews.ProductID() != productID {
		return
	}
	data.Reviews = st.Reviews.Reviews()
	data.HasMore = st.Reviews.HasMore()
	data.Loading = st.Reviews.Loading()
}
