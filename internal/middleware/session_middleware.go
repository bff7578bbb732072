package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/ikkim/shopsphere-storefront/config"
	"github.com/ikkim/shopsphere-storefront/internal/session"
)

const (
	SessionCookieName = "shopsphere_session"
	sessionIDValue    = "sid"
	stateKey          = "visitor_state"
)

// NewCookieStore builds the signed cookie store that carries the visitor's
// session id.
func NewCookieStore(cfg config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((cfg.IdleTTL + 24*time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware attaches the visitor's State to the request. Visitors
// without a cookie, or whose state was swept, get a fresh State.
func SessionMiddleware(cookies sessions.Store, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		// A cookie that fails to decode still yields a usable new session.
		sess, err := cookies.Get(c.Request, SessionCookieName)
		if err != nil {
			log.Debug("Discarding unreadable session cookie", map[string]interface{}{
				"error": err.Error(),
			})
		}

		id, _ := sess.Values[sessionIDValue].(string)
		state, ok := registry.Get(id)
		if !ok {
			state = registry.Create()
			sess.Values[sessionIDValue] = state.ID
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Error("Failed to save session cookie", err)
			}
		}

		c.Set(stateKey, state)
		c.Next()
	}
}

// GetState returns the visitor's State set by SessionMiddleware
func GetState(c *gin.Context) *session.State {
	if v, exists := c.Get(stateKey); exists {
		if st, ok := v.(*session.State); ok {
			return st
		}
	}
	return nil
}

// SetState attaches st to the request. Used where SessionMiddleware does not run.
func SetState(c *gin.Context, st *session.State) {
	c.Set(stateKey, st)
}
