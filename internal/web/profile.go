package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/blog"
)

func (r *Router) editProfileForm(c *gin.Context) {
	r.render(c, http.StatusOK, "user.html", gin.H{"form": profileFormOf(auth.CurrentUser(c)), "errors": FormErrors{}})
}

func (r *Router) editProfile(c *gin.Context) {
	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		r.render(c, http.StatusOK, "user.html", gin.H{"form": form, "errors": bindErrors(err)})
		return
	}

	user, err := r.Blog.UpdateProfile(c.Request.Context(), auth.ViewerFrom(c), blog.ProfileInput{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if errors.Is(err, blog.ErrUsernameTaken) {
		errs := FormErrors{}
		errs.Add("username", "A user with that username already exists.")
		r.render(c, http.StatusOK, "user.html", gin.H{"form": form, "errors": errs})
		return
	}
	if err != nil {
		r.fail(c, err, 0)
		return
	}
	c.Redirect(http.StatusFound, profileURL(user.Username))
}
