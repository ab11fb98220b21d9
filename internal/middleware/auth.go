package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskhub/internal/constants"
	"github.com/yukikurage/taskhub/internal/logger"
	"github.com/yukikurage/taskhub/internal/models"
)

// LoginPath is where unauthenticated page requests are sent
const LoginPath = "/accounts/login/"

// UserLoader resolves the session's user id to a user
type UserLoader interface {
	GetUser(id uint64) (*models.User, error)
}

// RequireAuth resolves the session user once per request and stores it in the context.
// Requests without a valid session are redirected to the login page.
func RequireAuth(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := toUint64(session.Get(constants.ContextKeyUserID))
		if !ok {
			redirectToLogin(c)
			return
		}

		user, err := users.GetUser(userID)
		if err != nil {
			// Stale session, e.g. the account was deleted
			logger.Debug("dropping session", "user_id", userID, "error", err)
			session.Clear()
			_ = session.Save()
			redirectToLogin(c)
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	target := LoginPath
	if c.Request.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// CurrentUser returns the user loaded by RequireAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func toUint64(v interface{}) (uint64, bool) {
	switch id := v.(type) {
	case uint64:
		return id, true
	case uint:
		return uint64(id), true
	case int:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	case int64:
		if id < 0 {
			return 0, false
		}
		return uint64(id), true
	default:
		return 0, false
	}
}
