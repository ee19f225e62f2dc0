package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blogicum/blogicum/internal/models"
)

// ErrDuplicate is returned when a unique column (username, slug) already holds the value
var ErrDuplicate = errors.New("duplicate value")

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?
func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// UsernameTaken reports whether another user than exceptID already uses username
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, exceptID).
		Count(&count).Error
	return count > 0, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error)
}

// CategoryRepository provides category-related database operations
type CategoryRepository struct {
	*Repository
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(repo *Repository) *CategoryRepository {
	return &CategoryRepository{Repository: repo}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// List returns categories ordered by title. An empty search matches everything.
func (r *CategoryRepository) List(ctx context.Context, search string) ([]*models.Category, error) {
	query := r.db.WithContext(ctx).Order("title").Order("id")
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	var categories []*models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(category).Error)
}

// Update updates a category
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return translate(r.db.WithContext(ctx).Save(category).Error)
}

// Delete removes a category and clears it from every post that referenced it.
// It reports whether the category existed.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("category_id = ?", id).
			Update("category_id", gorm.Expr("NULL")).Error; err != nil {
			return fmt.Errorf("failed to detach posts: %w", err)
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// LocationRepository provides location-related database operations
type LocationRepository struct {
	*Repository
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(repo *Repository) *LocationRepository {
	return &LocationRepository{Repository: repo}
}

// GetByID retrieves a location by ID
func (r *LocationRepository) GetByID(ctx context.Context, id int64) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).First(&location, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// List returns locations ordered by name. An empty search matches everything.
func (r *LocationRepository) List(ctx context.Context, search string) ([]*models.Location, error) {
	query := r.db.WithContext(ctx).Order("name").Order("id")
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(search))
	}
	var locations []*models.Location
	if err := query.Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Create creates a new location
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

// Update updates a location
func (r *LocationRepository) Update(ctx context.Context, location *models.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

// Delete removes a location and clears it from every post that referenced it.
// It reports whether the location existed.
func (r *LocationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("location_id = ?", id).
			Update("location_id", gorm.Expr("NULL")).Error; err != nil {
			return fmt.Errorf("failed to detach posts: %w", err)
		}
		res := tx.Delete(&models.Location{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post with its author, category and location
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create creates a new post. Loaded associations are never written.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update updates a post. Loaded associations are never written.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

// SetPublished flips the published flag of a post and reports whether it existed
func (r *PostRepository) SetPublished(ctx context.Context, id int64, published bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("is_published", published)
	return res.RowsAffected > 0, res.Error
}

// Delete removes a post together with its comments and reports whether it existed
func (r *PostRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// PostFilter narrows the back-office post listing
type PostFilter struct {
	Search      string
	IsPublished *bool
	CategoryID  *int64
	Limit       int
}

// Search lists posts for the back-office ordered by creation time, ignoring visibility
func (r *PostRepository) Search(ctx context.Context, f PostFilter) ([]*models.Post, error) {
	query := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("created_at").Order("id")
	if f.Search != "" {
		pattern := likePattern(f.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(text) LIKE ?", pattern, pattern)
	}
	if f.IsPublished != nil {
		query = query.Where("is_published = ?", *f.IsPublished)
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	var posts []*models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// GetByID retrieves a comment with its author
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns the comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at").Order("id").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// UpdateText replaces the text of a comment
func (r *CommentRepository) UpdateText(ctx context.Context, id int64, text string) error {
	return r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("text", text).Error
}

// Delete removes a comment and reports whether it existed
func (r *CommentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	return res.RowsAffected > 0, res.Error
}

// Search lists comments for the back-office matching text, author username or post title
func (r *CommentRepository) Search(ctx context.Context, search string, limit int) ([]*models.Comment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Preload("Author").
		Preload("Post").
		Order("blog_comment.created_at").Order("blog_comment.id")
	if search != "" {
		pattern := likePattern(search)
		query = query.
			Joins("JOIN auth_user ON auth_user.id = blog_comment.author_id").
			Joins("JOIN blog_post ON blog_post.id = blog_comment.post_id").
			Where("LOWER(blog_comment.text) LIKE ? OR LOWER(auth_user.username) LIKE ? OR LOWER(blog_post.title) LIKE ?",
				pattern, pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var comments []*models.Comment
	if err := query.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
