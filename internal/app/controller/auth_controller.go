package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopsphere-storefront/internal/errors"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/view"
)

type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

// SignupForm renders the signup form
// GET /signup
func (ctrl *AuthController) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageSignup, newPageData(c, "Signup"))
}

// Signup creates an account. The visitor still has to log in afterwards.
// POST /signup
func (ctrl *AuthController) Signup(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	form := map[string]string{
		"user_name": strings.TrimSpace(c.PostForm("user_name")),
		"email":     strings.TrimSpace(c.PostForm("email")),
	}

	user, err := st.User.Signup(c.Request.Context(), form["user_name"], form["email"], c.PostForm("password"))
	if err != nil {
		log.Warn("Signup failed", map[string]interface{}{
			"email": form["email"],
			"error": err.Error(),
		})
		info := apperrors.ParseError(err, "signup")

		data := newPageData(c, "Signup")
		data.Error = authMessage(st.User.Error(), info)
		data.Form = form
		c.HTML(info.Status, view.PageSignup, data)
		return
	}

	log.Info("User signed up", map[string]interface{}{
		"user_id": user.ID,
	})
	flash(c, "Account created. Please log in")
	redirect(c, "/login")
}

// LoginForm renders the login form
// GET /login
func (ctrl *AuthController) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageLogin, newPageData(c, "Login"))
}

// Login authenticates the visitor and keeps the token in their state
// POST /login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	email := strings.TrimSpace(c.PostForm("email"))
	if _, err := st.User.Login(c.Request.Context(), email, c.PostForm("password")); err != nil {
		log.Warn("Login failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		info := apperrors.ParseError(err, "login")

		data := newPageData(c, "Login")
		data.Error = authMessage(st.User.Error(), info)
		data.Form = map[string]string{"email": email}
		c.HTML(info.Status, view.PageLogin, data)
		return
	}

	log.Info("User logged in", map[string]interface{}{
		"user_id": st.User.UserID(),
	})
	flash(c, "Welcome back!")
	redirect(c, "/products")
}

// Logout clears the visitor's user and token
// POST /logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	state(c).User.Logout()
	flash(c, "You have been logged out")
	redirect(c, "/")
}

// authMessage prefers the message the user store recorded, which carries
// the server's own wording, over the generic one for the error code.
func authMessage(storeMsg string, info apperrors.ErrorInfo) string {
	if storeMsg != "" {
		return storeMsg
	}
	return info.Message
}
