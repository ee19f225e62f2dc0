// Package blog implements the blog's use cases: listing and reading posts,
// writing posts and comments, and editing profiles.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/access"
	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/models"
	"github.com/blogicum/blogicum/pkg/logging"
	"github.com/blogicum/blogicum/pkg/telemetry"
)

// Service runs blog operations on behalf of a viewer
type Service struct {
	posts      *db.PostRepository
	comments   *db.CommentRepository
	categories *db.CategoryRepository
	locations  *db.LocationRepository
	users      *db.UserRepository

	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a blog service over repo
func NewService(repo *db.Repository, pageSize int) *Service {
	return &Service{
		posts:      db.NewPostRepository(repo),
		comments:   db.NewCommentRepository(repo),
		categories: db.NewCategoryRepository(repo),
		locations:  db.NewLocationRepository(repo),
		users:      db.NewUserRepository(repo),
		pageSize:   pageSize,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logging.WithComponent("blog"),
	}
}

// SetClock replaces the time source used for visibility decisions
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) list(ctx context.Context, op string, q db.PostQuery) (*db.PostPage, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog."+op)
	defer span.End()
	span.SetAttributes(attribute.Int("page", q.Page))

	page, err := s.posts.List(ctx, q)
	if errors.Is(err, db.ErrPageOutOfRange) {
		return nil, ErrNotFound
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return page, nil
}

// ListIndex returns one page of every post the viewer may see
func (s *Service) ListIndex(ctx context.Context, viewer access.Viewer, page int) (*db.PostPage, error) {
	return s.list(ctx, "list_index", db.IndexQuery(viewer, s.now(), page, s.pageSize))
}

// ListCategory returns a published category and one page of its posts
func (s *Service) ListCategory(ctx context.Context, viewer access.Viewer, slug string, page int) (*models.Category, *db.PostPage, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil || !category.IsPublished {
		return nil, nil, ErrNotFound
	}

	posts, err := s.list(ctx, "list_category", db.CategoryQuery(category.ID, viewer, s.now(), page, s.pageSize))
	if err != nil {
		return nil, nil, err
	}
	return category, posts, nil
}

// ListProfile returns a user and one page of their posts. Owners see all their posts.
func (s *Service) ListProfile(ctx context.Context, viewer access.Viewer, username string, page int) (*models.User, *db.PostPage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrNotFound
	}

	posts, err := s.list(ctx, "list_profile", db.ProfileQuery(user.ID, viewer, s.now(), page, s.pageSize))
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// GetPost returns a post the viewer may see, with its comments oldest first
func (s *Service) GetPost(ctx context.Context, viewer access.Viewer, id int64) (*models.Post, []*models.Comment, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog.get_post")
	defer span.End()
	span.SetAttributes(attribute.Int64("post_id", id))

	post, err := s.visiblePost(ctx, viewer, id)
	if err != nil {
		return nil, nil, err
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("failed to load comments: %w", err)
	}
	return post, comments, nil
}

func (s *Service) visiblePost(ctx context.Context, viewer access.Viewer, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil || !access.IsVisible(post, viewer, s.now()) {
		return nil, ErrNotFound
	}
	return post, nil
}

// ownPost loads a post for editing. Missing posts are ErrNotFound, foreign ones ErrNotOwner.
func (s *Service) ownPost(ctx context.Context, viewer access.Viewer, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if !access.CanModify(post.AuthorID, viewer) {
		return nil, ErrNotOwner
	}
	return post, nil
}

// PostInput holds the editable fields of a post
type PostInput struct {
	Title       string
	Text        string
	PubDate     time.Time
	CategoryID  *int64
	LocationID  *int64
	IsPublished bool
	// Image replaces the stored image when non-empty
	Image string
}

func (s *Service) checkChoices(ctx context.Context, in PostInput) error {
	if in.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return fmt.Errorf("%w: category %d", ErrInvalidChoice, *in.CategoryID)
		}
	}
	if in.LocationID != nil {
		location, err := s.locations.GetByID(ctx, *in.LocationID)
		if err != nil {
			return err
		}
		if location == nil {
			return fmt.Errorf("%w: location %d", ErrInvalidChoice, *in.LocationID)
		}
	}
	return nil
}

func (in PostInput) applyTo(post *models.Post) {
	post.Title = strings.TrimSpace(in.Title)
	post.Text = in.Text
	post.PubDate = in.PubDate.UTC()
	post.CategoryID = in.CategoryID
	post.LocationID = in.LocationID
	post.IsPublished = in.IsPublished
	if in.Image != "" {
		post.Image = in.Image
	}
}

// CreatePost stores a new post written by viewer
func (s *Service) CreatePost(ctx context.Context, viewer access.Viewer, in PostInput) (*models.Post, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrNotOwner
	}
	if err := s.checkChoices(ctx, in); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: viewer.ID}
	in.applyTo(post)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("Post created", zap.Int64("post_id", post.ID), zap.Int64("user_id", viewer.ID))
	return post, nil
}

// PostForEdit returns a post the viewer owns
func (s *Service) PostForEdit(ctx context.Context, viewer access.Viewer, id int64) (*models.Post, error) {
	return s.ownPost(ctx, viewer, id)
}

// UpdatePost changes a post the viewer owns. It returns the updated post and the
// name of an image it replaced, if any.
func (s *Service) UpdatePost(ctx context.Context, viewer access.Viewer, id int64, in PostInput) (*models.Post, string, error) {
	post, err := s.ownPost(ctx, viewer, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkChoices(ctx, in); err != nil {
		return nil, "", err
	}

	var replaced string
	if in.Image != "" && post.Image != "" && in.Image != post.Image {
		replaced = post.Image
	}
	in.applyTo(post)
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, "", fmt.Errorf("failed to update post: %w", err)
	}

	s.logger.Info("Post updated", zap.Int64("post_id", post.ID), zap.Int64("user_id", viewer.ID))
	return post, replaced, nil
}

// DeletePost removes a post the viewer owns along with its comments. It returns
// the deleted post so callers can clean up its image.
func (s *Service) DeletePost(ctx context.Context, viewer access.Viewer, id int64) (*models.Post, error) {
	post, err := s.ownPost(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("Post deleted", zap.Int64("post_id", post.ID), zap.Int64("user_id", viewer.ID))
	return post, nil
}

// CommentTarget returns the post viewer wants to comment on
func (s *Service) CommentTarget(ctx context.Context, viewer access.Viewer, postID int64) (*models.Post, error) {
	return s.visiblePost(ctx, viewer, postID)
}

// CreateComment adds a comment by viewer to a post they can see
func (s *Service) CreateComment(ctx context.Context, viewer access.Viewer, postID int64, text string) (*models.Comment, error) {
	if !viewer.IsAuthenticated() {
		return nil, ErrNotOwner
	}
	post, err := s.visiblePost(ctx, viewer, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Text: text, AuthorID: viewer.ID, PostID: post.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.Info("Comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", post.ID),
		zap.Int64("user_id", viewer.ID),
	)
	return comment, nil
}

// CommentForEdit returns a comment on postID that the viewer wrote
func (s *Service) CommentForEdit(ctx context.Context, viewer access.Viewer, postID, commentID int64) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil || comment.PostID != postID {
		return nil, ErrNotFound
	}
	if !access.CanModify(comment.AuthorID, viewer) {
		return nil, ErrNotOwner
	}
	return comment, nil
}

// UpdateComment replaces the text of a comment the viewer wrote
func (s *Service) UpdateComment(ctx context.Context, viewer access.Viewer, postID, commentID int64, text string) (*models.Comment, error) {
	comment, err := s.CommentForEdit(ctx, viewer, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.comments.UpdateText(ctx, comment.ID, text); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	comment.Text = text
	return comment, nil
}

// DeleteComment removes a comment the viewer wrote
func (s *Service) DeleteComment(ctx context.Context, viewer access.Viewer, postID, commentID int64) error {
	comment, err := s.CommentForEdit(ctx, viewer, postID, commentID)
	if err != nil {
		return err
	}
	if _, err := s.comments.Delete(ctx, comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.logger.Info("Comment deleted", zap.Int64("comment_id", comment.ID), zap.Int64("user_id", viewer.ID))
	return nil
}

// ProfileInput holds the editable fields of a user profile
type ProfileInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// UpdateProfile edits the viewer's own account
func (s *Service) UpdateProfile(ctx context.Context, viewer access.Viewer, in ProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	username := strings.TrimSpace(in.Username)
	taken, err := s.users.UsernameTaken(ctx, username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	user.Username = username
	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Choices returns every category and location a post can reference
func (s *Service) Choices(ctx context.Context) ([]*models.Category, []*models.Location, error) {
	categories, err := s.categories.List(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list categories: %w", err)
	}
	locations, err := s.locations.List(ctx, "")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return categories, locations, nil
}
