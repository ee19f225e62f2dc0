package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/blog"
	"github.com/blogicum/blogicum/internal/media"
	"github.com/blogicum/blogicum/internal/models"
)

// pageParam reads ?page=; anything but a positive integer is a 404
func pageParam(c *gin.Context) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func profileURL(username string) string {
	return "/profile/" + username
}

func (r *Router) index(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		r.notFound(c)
		return
	}
	posts, err := r.Blog.ListIndex(c.Request.Context(), auth.ViewerFrom(c), page)
	if err != nil {
		r.fail(c, err, 0)
		return
	}
	r.render(c, http.StatusOK, "index.html", gin.H{"page": posts})
}

func (r *Router) categoryPosts(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		r.notFound(c)
		return
	}
	category, posts, err := r.Blog.ListCategory(c.Request.Context(), auth.ViewerFrom(c), c.Param("slug"), page)
	if err != nil {
		r.fail(c, err, 0)
		return
	}
	r.render(c, http.StatusOK, "category.html", gin.H{"category": category, "page": posts})
}

func (r *Router) profile(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		r.notFound(c)
		return
	}
	viewer := auth.ViewerFrom(c)
	profile, posts, err := r.Blog.ListProfile(c.Request.Context(), viewer, c.Param("username"), page)
	if err != nil {
		r.fail(c, err, 0)
		return
	}
	r.render(c, http.StatusOK, "profile.html", gin.H{
		"profile":  profile,
		"page":     posts,
		"is_owner": viewer.Is(profile.ID),
	})
}

func (r *Router) postDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	post, comments, err := r.Blog.GetPost(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		r.fail(c, err, id)
		return
	}
	r.render(c, http.StatusOK, "detail.html", gin.H{
		"post":     post,
		"comments": comments,
		"form":     CommentForm{},
		"errors":   FormErrors{},
	})
}

// renderPostForm shows the create/edit page with category and location choices
func (r *Router) renderPostForm(c *gin.Context, form PostForm, errs FormErrors, post *models.Post) {
	categories, locations, err := r.Blog.Choices(c.Request.Context())
	if err != nil {
		r.serverError(c, err)
		return
	}
	r.render(c, http.StatusOK, "create.html", gin.H{
		"form":       form,
		"errors":     errs,
		"post":       post,
		"categories": categories,
		"locations":  locations,
	})
}

// bindPost parses a submitted post form and stores any uploaded image
func (r *Router) bindPost(c *gin.Context) (PostForm, blog.PostInput, FormErrors) {
	var form PostForm
	errs := FormErrors{}
	if err := c.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	in := form.Input(errs)
	if errs.Any() {
		return form, in, errs
	}

	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		errs.Add("image", "Upload a valid image.")
	default:
		name, err := r.Media.SaveUpload(fh)
		if errors.Is(err, media.ErrInvalidImage) {
			errs.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
		} else if err != nil {
			errs.Add("image", "Could not store the image.")
			r.logger.Error("Failed to store upload", zap.Error(err))
		}
		in.Image = name
	}
	return form, in, errs
}

// discardUpload removes an image stored for a submission that did not go through
func (r *Router) discardUpload(name string) {
	if name == "" {
		return
	}
	if err := r.Media.Delete(name); err != nil {
		r.logger.Warn("Failed to remove image", zap.String("image", name), zap.Error(err))
	}
}

func (r *Router) createPostForm(c *gin.Context) {
	r.renderPostForm(c, newPostForm(r.now()), FormErrors{}, nil)
}

func (r *Router) createPost(c *gin.Context) {
	form, in, errs := r.bindPost(c)
	if errs.Any() {
		r.discardUpload(in.Image)
		r.renderPostForm(c, form, errs, nil)
		return
	}

	_, err := r.Blog.CreatePost(c.Request.Context(), auth.ViewerFrom(c), in)
	if errors.Is(err, blog.ErrInvalidChoice) {
		r.discardUpload(in.Image)
		errs.Add("category", "Select a valid choice.")
		r.renderPostForm(c, form, errs, nil)
		return
	}
	if err != nil {
		r.discardUpload(in.Image)
		r.fail(c, err, 0)
		return
	}
	c.Redirect(http.StatusFound, profileURL(auth.CurrentUser(c).Username))
}

func (r *Router) editPostForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	post, err := r.Blog.PostForEdit(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		r.fail(c, err, id)
		return
	}
	r.renderPostForm(c, postFormOf(post), FormErrors{}, post)
}

func (r *Router) editPost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	viewer := auth.ViewerFrom(c)
	post, err := r.Blog.PostForEdit(c.Request.Context(), viewer, id)
	if err != nil {
		r.fail(c, err, id)
		return
	}

	form, in, errs := r.bindPost(c)
	if errs.Any() {
		r.discardUpload(in.Image)
		r.renderPostForm(c, form, errs, post)
		return
	}

	_, replaced, err := r.Blog.UpdatePost(c.Request.Context(), viewer, id, in)
	if errors.Is(err, blog.ErrInvalidChoice) {
		r.discardUpload(in.Image)
		errs.Add("category", "Select a valid choice.")
		r.renderPostForm(c, form, errs, post)
		return
	}
	if err != nil {
		r.discardUpload(in.Image)
		r.fail(c, err, id)
		return
	}
	r.discardUpload(replaced)
	c.Redirect(http.StatusFound, postURL(id))
}

func (r *Router) deletePostForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	post, err := r.Blog.PostForEdit(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		r.fail(c, err, id)
		return
	}
	r.render(c, http.StatusOK, "create.html", gin.H{
		"delete": true,
		"post":   post,
		"form":   postFormOf(post),
		"errors": FormErrors{},
	})
}

func (r *Router) deletePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	post, err := r.Blog.DeletePost(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		r.fail(c, err, id)
		return
	}
	r.discardUpload(post.Image)
	c.Redirect(http.StatusFound, "/")
}
