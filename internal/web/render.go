package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/blog"
	"github.com/blogicum/blogicum/internal/media"
)

//go:embed templates
var templateFS embed.FS

// loadTemplates parses every page and include with the view helpers
func loadTemplates(store *media.Store) (*template.Template, error) {
	funcs := template.FuncMap{
		"mediaURL": store.URL,
		"date": func(t time.Time) string {
			return t.UTC().Format("2 January 2006, 15:04")
		},
		"postURL": postURL,
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"errorsFor": func(errs FormErrors, field string) []string {
			return errs[field]
		},
		"selected": func(current string, id int64) bool {
			return current == fmt.Sprint(id)
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html", "templates/includes/*.html")
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d", id)
}

// render executes a page template with the requester added to data
func (r *Router) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["user"] = auth.CurrentUser(c)
	c.HTML(status, name, data)
}

func (r *Router) notFound(c *gin.Context) {
	r.render(c, http.StatusNotFound, "404.html", nil)
}

func (r *Router) serverError(c *gin.Context, err error) {
	r.logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	r.render(c, http.StatusInternalServerError, "500.html", nil)
}

// fail maps service errors to responses. Ownership failures send the viewer
// back to the post.
func (r *Router) fail(c *gin.Context, err error, postID int64) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		r.notFound(c)
	case errors.Is(err, blog.ErrNotOwner):
		c.Redirect(http.StatusFound, postURL(postID))
	default:
		r.serverError(c, err)
	}
}
