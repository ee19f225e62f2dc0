package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/auth"
)

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (r *Router) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(r.Session.CookieName, token, maxAge, "/", "", r.Session.Secure, true)
}

func (r *Router) registrationForm(c *gin.Context) {
	r.render(c, http.StatusOK, "registration_form.html", gin.H{"form": RegistrationForm{}, "errors": FormErrors{}})
}

func (r *Router) register(c *gin.Context) {
	var form RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password1, form.Password2 = "", ""
		r.render(c, http.StatusOK, "registration_form.html", gin.H{"form": form, "errors": bindErrors(err)})
		return
	}

	_, err := r.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password1,
	})
	if errors.Is(err, auth.ErrUsernameTaken) {
		errs := FormErrors{}
		errs.Add("username", "A user with that username already exists.")
		form.Password1, form.Password2 = "", ""
		r.render(c, http.StatusOK, "registration_form.html", gin.H{"form": form, "errors": errs})
		return
	}
	if err != nil {
		r.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (r *Router) loginForm(c *gin.Context) {
	r.render(c, http.StatusOK, "login.html", gin.H{
		"form":   LoginForm{Next: c.Query("next")},
		"errors": FormErrors{},
	})
}

func (r *Router) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		form.Password = ""
		r.render(c, http.StatusOK, "login.html", gin.H{"form": form, "errors": bindErrors(err)})
		return
	}

	user, err := r.Auth.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		errs := FormErrors{}
		errs.Add("", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
		form.Password = ""
		r.render(c, http.StatusOK, "login.html", gin.H{"form": form, "errors": errs})
		return
	}
	if err != nil {
		r.serverError(c, err)
		return
	}

	token, err := r.Auth.Login(c.Request.Context(), user)
	if err != nil {
		r.serverError(c, err)
		return
	}
	r.setSessionCookie(c, token, r.Auth.SessionTTLSeconds())
	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (r *Router) logout(c *gin.Context) {
	if token, err := c.Cookie(r.Session.CookieName); err == nil && token != "" {
		if err := r.Auth.Logout(c.Request.Context(), token); err != nil {
			r.logger.Warn("Failed to end session", zap.Error(err))
		}
	}
	r.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (r *Router) passwordChangeForm(c *gin.Context) {
	r.render(c, http.StatusOK, "password_change_form.html", gin.H{"errors": FormErrors{}})
}

func (r *Router) changePassword(c *gin.Context) {
	var form PasswordChangeForm
	if err := c.ShouldBind(&form); err != nil {
		r.render(c, http.StatusOK, "password_change_form.html", gin.H{"errors": bindErrors(err)})
		return
	}

	err := r.Auth.ChangePassword(c.Request.Context(), auth.CurrentUser(c), form.OldPassword, form.NewPassword1)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		errs := FormErrors{}
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
		r.render(c, http.StatusOK, "password_change_form.html", gin.H{"errors": errs})
		return
	}
	if err != nil {
		r.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(auth.CurrentUser(c).Username))
}
