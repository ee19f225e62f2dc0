package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/internal/auth"
)

func (r *Router) commentForm(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	post, err := r.Blog.CommentTarget(c.Request.Context(), auth.ViewerFrom(c), id)
	if err != nil {
		r.fail(c, err, id)
		return
	}
	r.render(c, http.StatusOK, "comment.html", gin.H{"post": post, "form": CommentForm{}, "errors": FormErrors{}})
}

func (r *Router) addComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		r.notFound(c)
		return
	}
	viewer := auth.ViewerFrom(c)

	var form CommentForm
	if err := c.ShouldBind(&form); err != nil {
		post, perr := r.Blog.CommentTarget(c.Request.Context(), viewer, id)
		if perr != nil {
			r.fail(c, perr, id)
			return
		}
		r.render(c, http.StatusOK, "comment.html", gin.H{"post": post, "form": form, "errors": bindErrors(err)})
		return
	}

	if _, err := r.Blog.CreateComment(c.Request.Context(), viewer, id, form.Text); err != nil {
		r.fail(c, err, id)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

// commentParams reads the post and comment ids from the path
func (r *Router) commentParams(c *gin.Context) (int64, int64, bool) {
	postID, ok := idParam(c, "id")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := idParam(c, "cid")
	if !ok {
		return 0, 0, false
	}
	return postID, commentID, true
}

func (r *Router) editCommentForm(c *gin.Context) {
	postID, commentID, ok := r.commentParams(c)
	if !ok {
		r.notFound(c)
		return
	}
	comment, err := r.Blog.CommentForEdit(c.Request.Context(), auth.ViewerFrom(c), postID, commentID)
	if err != nil {
		r.fail(c, err, postID)
		return
	}
	r.render(c, http.StatusOK, "comment.html", gin.H{
		"comment": comment,
		"form":    CommentForm{Text: comment.Text},
		"errors":  FormErrors{},
	})
}

func (r *Router) editComment(c *gin.Context) {
	postID, commentID, ok := r.commentParams(c)
	if !ok {
		r.notFound(c)
		return
	}
	viewer := auth.ViewerFrom(c)
	comment, err := r.Blog.CommentForEdit(c.Request.Context(), viewer, postID, commentID)
	if err != nil {
		r.fail(c, err, postID)
		return
	}

	var form CommentForm
	if err := c.ShouldBind(&form); err != nil {
		r.render(c, http.StatusOK, "comment.html", gin.H{"comment": comment, "form": form, "errors": bindErrors(err)})
		return
	}
	if _, err := r.Blog.UpdateComment(c.Request.Context(), viewer, postID, commentID, form.Text); err != nil {
		r.fail(c, err, postID)
		return
	}
	c.Redirect(http.StatusFound, postURL(postID))
}

func (r *Router) deleteCommentForm(c *gin.Context) {
	postID, commentID, ok := r.commentParams(c)
	if !ok {
		r.notFound(c)
		return
	}
	comment, err := r.Blog.CommentForEdit(c.Request.Context(), auth.ViewerFrom(c), postID, commentID)
	if err != nil {
		r.fail(c, err, postID)
		return
	}
	r.render(c, http.StatusOK, "comment.html", gin.H{"comment": comment, "delete": true})
}

func (r *Router) deleteComment(c *gin.Context) {
	postID, commentID, ok := r.commentParams(c)
	if !ok {
		r.notFound(c)
		return
	}
	if err := r.Blog.DeleteComment(c.Request.Context(), auth.ViewerFrom(c), postID, commentID); err != nil {
		r.fail(c, err, postID)
		return
	}
	c.Redirect(http.StatusFound, postURL(postID))
}
