package web

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/blogicum/blogicum/internal/blog"
	"github.com/blogicum/blogicum/internal/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	registerOnce    sync.Once
)

// registerValidators names validation errors after form fields and adds the
// username rule
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		}); err != nil {
			panic(fmt.Sprintf("register username validation: %v", err))
		}
	})
}

// FormErrors maps form field names to their messages. The empty key holds
// errors that belong to the whole form.
type FormErrors map[string][]string

// Add records a message for field
func (e FormErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Any reports whether there is at least one error
func (e FormErrors) Any() bool {
	return len(e) > 0
}

// bindErrors turns a gin binding error into per-field messages
func bindErrors(err error) FormErrors {
	errs := FormErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("", "Invalid form submission.")
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "min":
		return "Ensure this value has at least " + fe.Param() + " characters."
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return "Enter a valid value."
	}
}

var pubDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

const pubDateInputLayout = "2006-01-02T15:04"

// parsePubDate accepts the date and datetime-local forms browsers submit; all
// values are taken as UTC
func parsePubDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("enter a valid date/time")
}

// PostForm is the create/edit form for posts
type PostForm struct {
	Title       string `form:"title" binding:"required,max=256"`
	Text        string `form:"text" binding:"required"`
	PubDate     string `form:"pub_date" binding:"required"`
	Category    string `form:"category" binding:"required"`
	Location    string `form:"location"`
	IsPublished string `form:"is_published"`
}

// newPostForm returns an empty form with publication ticked
func newPostForm(now time.Time) PostForm {
	return PostForm{PubDate: now.Format(pubDateInputLayout), IsPublished: "on"}
}

// postFormOf fills a form from a stored post
func postFormOf(p *models.Post) PostForm {
	f := PostForm{
		Title:   p.Title,
		Text:    p.Text,
		PubDate: p.PubDate.UTC().Format(pubDateInputLayout),
	}
	if p.CategoryID != nil {
		f.Category = strconv.FormatInt(*p.CategoryID, 10)
	}
	if p.LocationID != nil {
		f.Location = strconv.FormatInt(*p.LocationID, 10)
	}
	if p.IsPublished {
		f.IsPublished = "on"
	}
	return f
}

// Published reports whether the checkbox is ticked
func (f PostForm) Published() bool {
	return f.IsPublished != ""
}

// Input converts the form into service input, recording any field errors
func (f PostForm) Input(errs FormErrors) blog.PostInput {
	in := blog.PostInput{Title: f.Title, Text: f.Text, IsPublished: f.Published()}

	pubDate, err := parsePubDate(f.PubDate)
	if err != nil {
		errs.Add("pub_date", "Enter a valid date/time.")
	}
	in.PubDate = pubDate

	if f.Category != "" {
		if id, ok := parseChoice(f.Category, "category", errs); ok {
			in.CategoryID = id
		}
	}
	if f.Location != "" {
		if id, ok := parseChoice(f.Location, "location", errs); ok {
			in.LocationID = id
		}
	}
	return in
}

func parseChoice(s, field string, errs FormErrors) (*int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		errs.Add(field, "Select a valid choice.")
		return nil, false
	}
	return &id, true
}

// CommentForm is the create/edit form for comments
type CommentForm struct {
	Text string `form:"text" binding:"required"`
}

// ProfileForm edits the viewer's own account
type ProfileForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"omitempty,email"`
}

func profileFormOf(u *models.User) ProfileForm {
	return ProfileForm{FirstName: u.FirstName, LastName: u.LastName, Username: u.Username, Email: u.Email}
}

// RegistrationForm signs up a new user
type RegistrationForm struct {
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

// LoginForm authenticates a user
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

// PasswordChangeForm replaces the viewer's password
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required,min=8"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`
}
