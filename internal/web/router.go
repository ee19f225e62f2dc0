// Package web serves the blog's HTML pages.
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/admin"
	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/blog"
	"github.com/blogicum/blogicum/internal/media"
	"github.com/blogicum/blogicum/pkg/config"
	"github.com/blogicum/blogicum/pkg/logging"
)

const loginURL = "/auth/login"

// HealthCheck probes one backing service
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the collaborators the router serves requests with
type Deps struct {
	Blog    *blog.Service
	Auth    *auth.Service
	Media   *media.Store
	Admin   *admin.JSONRPCHandler
	Session config.SessionConfig
	Health  []HealthCheck
}

// Router sets up the site routes
type Router struct {
	Deps
	now    func() time.Time
	logger *zap.Logger
}

// NewRouter creates a new site router
func NewRouter(deps Deps) *Router {
	registerValidators()
	return &Router{
		Deps:   deps,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.WithComponent("web"),
	}
}

// SetupRoutes installs middleware, templates and every route on engine
func (r *Router) SetupRoutes(engine *gin.Engine) error {
	tmpl, err := loadTemplates(r.Media)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)
	engine.MaxMultipartMemory = 10 << 20

	engine.Use(gin.Recovery(), requestLogger(r.logger), instrument(), secureHeaders(), r.Auth.LoadUser(r.Session.CookieName))

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	engine.Static(strings.TrimSuffix(r.Media.URLPrefix, "/"), r.Media.Dir)

	engine.GET("/", r.index)
	engine.GET("/posts/:id", r.postDetail)
	engine.GET("/category/:slug", r.categoryPosts)
	engine.GET("/profile/:username", r.profile)

	engine.GET("/auth/registration", r.registrationForm)
	engine.POST("/auth/registration", r.register)
	engine.GET("/auth/login", r.loginForm)
	engine.POST("/auth/login", r.login)
	engine.GET("/auth/logout", r.logout)
	engine.POST("/auth/logout", r.logout)

	private := engine.Group("/", auth.RequireLogin(loginURL))
	{
		private.GET("/posts/create", r.createPostForm)
		private.POST("/posts/create", r.createPost)
		private.GET("/posts/:id/edit", r.editPostForm)
		private.POST("/posts/:id/edit", r.editPost)
		private.GET("/posts/:id/delete", r.deletePostForm)
		private.POST("/posts/:id/delete", r.deletePost)

		private.GET("/posts/:id/comment", r.commentForm)
		private.POST("/posts/:id/comment", r.addComment)
		private.GET("/posts/:id/comment/:cid/edit", r.editCommentForm)
		private.POST("/posts/:id/comment/:cid/edit", r.editComment)
		private.GET("/posts/:id/comment/:cid/delete", r.deleteCommentForm)
		private.POST("/posts/:id/comment/:cid/delete", r.deleteComment)

		private.GET("/profile/edit", r.editProfileForm)
		private.POST("/profile/edit", r.editProfile)

		private.GET("/auth/password_change", r.passwordChangeForm)
		private.POST("/auth/password_change", r.changePassword)
	}

	if r.Admin != nil {
		engine.POST("/admin/rpc", r.Admin.Handle)
	}

	engine.NoRoute(r.notFound)
	return nil
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for _, hc := range r.Health {
		if err := hc.Check(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.String("check", hc.Name), zap.Error(err))
			checks[hc.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.Name] = "OK"
	}

	overall := "OK"
	if status != http.StatusOK {
		overall = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "blogicum",
		"checks":  checks,
	})
}
