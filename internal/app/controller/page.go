package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopsphere-storefront/internal/errors"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/session"
	"github.com/ikkim/shopsphere-storefront/internal/view"
)

// newPageData fills the visitor fields every page shows
func newPageData(c *gin.Context, title string) view.PageData {
	data := view.PageData{
		Title:     title,
		RequestID: middleware.GetRequestID(c),
	}

	st := middleware.GetState(c)
	if st == nil {
		return data
	}
	data.User = st.User.User()
	data.LoggedIn = st.User.LoggedIn()
	data.UserID = st.User.UserID()
	data.IsAdmin = st.User.IsAdmin()
	data.Notice, data.Error = st.TakeFlash()
	return data
}

// renderError renders the error page for err. context names what was being
// done and picks the message, see apperrors.ParseError.
func renderError(c *gin.Context, err error, context string) {
	info := apperrors.ParseError(err, context)

	data := newPageData(c, http.StatusText(info.Status))
	data.Status = info.Status
	data.Code = info.Code
	data.Error = info.Message
	c.HTML(info.Status, view.PageError, data)
}

// redirect answers a form post with 303 so a reload does not resubmit
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func flash(c *gin.Context, msg string) {
	if st := middleware.GetState(c); st != nil {
		st.Flash(msg)
	}
}

func flashError(c *gin.Context, msg string) {
	if st := middleware.GetState(c); st != nil {
		st.FlashError(msg)
	}
}

func state(c *gin.Context) *session.State {
	return middleware.GetState(c)
}

// loadMore reports whether the request asks for the next page
func loadMore(c *gin.Context) bool {
	return c.Query("more") == "1"
}

// keepState reports whether the page should show the current store state
// without fetching, as after a redirect from a mutation.
func keepState(c *gin.Context) bool {
	return c.Query("keep") == "1"
}

// NotFound renders the 404 page for unknown routes
func NotFound(c *gin.Context) {
	data := newPageData(c, "Not Found")
	data.Status = http.StatusNotFound
	data.Code = apperrors.ResourceNotFound
	data.Error = "The requested page could not be found"
	c.HTML(http.StatusNotFound, view.PageError, data)
}
