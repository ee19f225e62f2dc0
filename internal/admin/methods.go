package admin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/models"
	"github.com/blogicum/blogicum/pkg/logging"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// API implements the back-office methods
type API struct {
	categories *db.CategoryRepository
	locations  *db.LocationRepository
	posts      *db.PostRepository
	comments   *db.CommentRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

// newValidator returns a validator with the slug rule; it panics if the rule
// cannot be registered
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register slug validation: %v", err))
	}
	return v
}

// NewAPI creates the back-office API over repo
func NewAPI(repo *db.Repository) *API {
	return &API{
		categories: db.NewCategoryRepository(repo),
		locations:  db.NewLocationRepository(repo),
		posts:      db.NewPostRepository(repo),
		comments:   db.NewCommentRepository(repo),
		validate:   newValidator(),
		logger:     logging.WithComponent("admin"),
	}
}

// NewHandler returns a JSON-RPC handler with every back-office method registered
func NewHandler(repo *db.Repository) *JSONRPCHandler {
	api := NewAPI(repo)
	h := NewJSONRPCHandler()

	h.RegisterMethod("admin.list_categories", api.ListCategories)
	h.RegisterMethod("admin.create_category", api.CreateCategory)
	h.RegisterMethod("admin.update_category", api.UpdateCategory)
	h.RegisterMethod("admin.delete_category", api.DeleteCategory)

	h.RegisterMethod("admin.list_locations", api.ListLocations)
	h.RegisterMethod("admin.create_location", api.CreateLocation)
	h.RegisterMethod("admin.update_location", api.UpdateLocation)
	h.RegisterMethod("admin.delete_location", api.DeleteLocation)

	h.RegisterMethod("admin.list_posts", api.ListPosts)
	h.RegisterMethod("admin.set_post_published", api.SetPostPublished)

	h.RegisterMethod("admin.list_comments", api.ListComments)
	h.RegisterMethod("admin.update_comment", api.UpdateComment)
	h.RegisterMethod("admin.delete_comment", api.DeleteComment)

	return h
}

// decode unmarshals params into dst and validates it. Missing params decode as {}.
func (a *API) decode(params json.RawMessage, dst interface{}) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidParams("invalid parameters format: %v", err)
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return invalidParams("%s", strings.Join(msgs, "; "))
		}
		return invalidParams("%v", err)
	}
	return nil
}

func limitOf(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func duplicate(err error, field string) error {
	if errors.Is(err, db.ErrDuplicate) {
		return invalidParams("%s already exists", field)
	}
	return err
}

type searchParams struct {
	Search string `json:"search"`
}

type idParams struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type categoryParams struct {
	ID          int64   `json:"id"`
	Title       *string `json:"title" validate:"omitempty,min=1,max=256"`
	Description *string `json:"description"`
	Slug        *string `json:"slug" validate:"omitempty,max=64,slug"`
	IsPublished *bool   `json:"is_published"`
}

// ListCategories handles admin.list_categories
func (a *API) ListCategories(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p searchParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	categories, err := a.categories.List(ctx.Request.Context(), p.Search)
	if err != nil {
		return nil, err
	}
	result := make([]*CategoryObject, 0, len(categories))
	for _, c := range categories {
		result = append(result, categoryObject(c))
	}
	return result, nil
}

// CreateCategory handles admin.create_category
func (a *API) CreateCategory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p categoryParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	if p.Title == nil || p.Slug == nil {
		return nil, invalidParams("title and slug are required")
	}

	category := &models.Category{
		Title:       *p.Title,
		Slug:        *p.Slug,
		IsPublished: boolOr(p.IsPublished, true),
	}
	if p.Description != nil {
		category.Description = *p.Description
	}
	if err := a.categories.Create(ctx.Request.Context(), category); err != nil {
		return nil, duplicate(err, "slug")
	}

	a.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("slug", category.Slug))
	return categoryObject(category), nil
}

// UpdateCategory handles admin.update_category. Omitted fields keep their values.
func (a *API) UpdateCategory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p categoryParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	if p.ID <= 0 {
		return nil, invalidParams("id is required")
	}

	category, err := a.categories.GetByID(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, notFound("category", p.ID)
	}
	if p.Title != nil {
		category.Title = *p.Title
	}
	if p.Description != nil {
		category.Description = *p.Description
	}
	if p.Slug != nil {
		category.Slug = *p.Slug
	}
	category.IsPublished = boolOr(p.IsPublished, category.IsPublished)

	if err := a.categories.Update(ctx.Request.Context(), category); err != nil {
		return nil, duplicate(err, "slug")
	}
	return categoryObject(category), nil
}

// DeleteCategory handles admin.delete_category; posts keep existing without a category
func (a *API) DeleteCategory(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p idParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	deleted, err := a.categories.Delete(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, notFound("category", p.ID)
	}
	a.logger.Info("Category deleted", zap.Int64("category_id", p.ID))
	return map[string]interface{}{"deleted": true}, nil
}

type locationParams struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=256"`
	IsPublished *bool   `json:"is_published"`
}

// ListLocations handles admin.list_locations
func (a *API) ListLocations(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p searchParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	locations, err := a.locations.List(ctx.Request.Context(), p.Search)
	if err != nil {
		return nil, err
	}
	result := make([]*LocationObject, 0, len(locations))
	for _, l := range locations {
		result = append(result, locationObject(l))
	}
	return result, nil
}

// CreateLocation handles admin.create_location
func (a *API) CreateLocation(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p locationParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	if p.Name == nil {
		return nil, invalidParams("name is required")
	}

	location := &models.Location{Name: *p.Name, IsPublished: boolOr(p.IsPublished, true)}
	if err := a.locations.Create(ctx.Request.Context(), location); err != nil {
		return nil, err
	}
	a.logger.Info("Location created", zap.Int64("location_id", location.ID))
	return locationObject(location), nil
}

// UpdateLocation handles admin.update_location
func (a *API) UpdateLocation(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p locationParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	if p.ID <= 0 {
		return nil, invalidParams("id is required")
	}

	location, err := a.locations.GetByID(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, notFound("location", p.ID)
	}
	if p.Name != nil {
		location.Name = *p.Name
	}
	location.IsPublished = boolOr(p.IsPublished, location.IsPublished)

	if err := a.locations.Update(ctx.Request.Context(), location); err != nil {
		return nil, err
	}
	return locationObject(location), nil
}

// DeleteLocation handles admin.delete_location
func (a *API) DeleteLocation(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p idParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	deleted, err := a.locations.Delete(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, notFound("location", p.ID)
	}
	a.logger.Info("Location deleted", zap.Int64("location_id", p.ID))
	return map[string]interface{}{"deleted": true}, nil
}

type listPostsParams struct {
	Search      string `json:"search"`
	IsPublished *bool  `json:"is_published"`
	CategoryID  *int64 `json:"category_id" validate:"omitempty,gt=0"`
	Limit       int    `json:"limit" validate:"gte=0"`
}

// ListPosts handles admin.list_posts
func (a *API) ListPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p listPostsParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	posts, err := a.posts.Search(ctx.Request.Context(), db.PostFilter{
		Search:      p.Search,
		IsPublished: p.IsPublished,
		CategoryID:  p.CategoryID,
		Limit:       limitOf(p.Limit),
	})
	if err != nil {
		return nil, err
	}
	result := make([]*PostObject, 0, len(posts))
	for _, post := range posts {
		result = append(result, postObject(post))
	}
	return result, nil
}

type setPublishedParams struct {
	ID          int64 `json:"id" validate:"required,gt=0"`
	IsPublished *bool `json:"is_published" validate:"required"`
}

// SetPostPublished handles admin.set_post_published
func (a *API) SetPostPublished(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p setPublishedParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	found, err := a.posts.SetPublished(ctx.Request.Context(), p.ID, *p.IsPublished)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound("post", p.ID)
	}
	a.logger.Info("Post publication changed", zap.Int64("post_id", p.ID), zap.Bool("is_published", *p.IsPublished))
	return map[string]interface{}{"id": p.ID, "is_published": *p.IsPublished}, nil
}

type listCommentsParams struct {
	Search string `json:"search"`
	Limit  int    `json:"limit" validate:"gte=0"`
}

// ListComments handles admin.list_comments
func (a *API) ListComments(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p listCommentsParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	comments, err := a.comments.Search(ctx.Request.Context(), p.Search, limitOf(p.Limit))
	if err != nil {
		return nil, err
	}
	result := make([]*CommentObject, 0, len(comments))
	for _, c := range comments {
		result = append(result, commentObject(c))
	}
	return result, nil
}

type updateCommentParams struct {
	ID   int64  `json:"id" validate:"required,gt=0"`
	Text string `json:"text" validate:"required"`
}

// UpdateComment handles admin.update_comment
func (a *API) UpdateComment(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p updateCommentParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return nil, invalidParams("text must not be blank")
	}

	comment, err := a.comments.GetByID(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, notFound("comment", p.ID)
	}
	if err := a.comments.UpdateText(ctx.Request.Context(), comment.ID, text); err != nil {
		return nil, err
	}
	comment.Text = text
	a.logger.Info("Comment edited", zap.Int64("comment_id", comment.ID))
	return commentObject(comment), nil
}

// DeleteComment handles admin.delete_comment
func (a *API) DeleteComment(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p idParams
	if err := a.decode(params, &p); err != nil {
		return nil, err
	}
	deleted, err := a.comments.Delete(ctx.Request.Context(), p.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, notFound("comment", p.ID)
	}
	a.logger.Info("Comment deleted", zap.Int64("comment_id", p.ID))
	return map[string]interface{}{"deleted": true}, nil
}
