package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/access"
	"github.com/blogicum/blogicum/internal/models"
)

const userKey = "blogicum.user"

// LoadUser resolves the session cookie to the current user. Requests without a
// valid session continue anonymously.
func (s *Service) LoadUser(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := s.UserForToken(c.Request.Context(), token)
		if err != nil {
			// A broken session backend should not take reads down with it
			s.logger.Error("Failed to resolve session", zap.Error(err))
		}
		if user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

// SetUser marks user as the requester of c
func SetUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
}

// CurrentUser returns the logged in user, or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// ViewerFrom returns the requester as an access.Viewer
func ViewerFrom(c *gin.Context) access.Viewer {
	return access.ViewerOf(CurrentUser(c))
}

// RequireLogin redirects anonymous requests to loginURL, remembering where they were going
func RequireLogin(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		target := loginURL + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}
