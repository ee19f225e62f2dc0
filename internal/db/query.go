package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/blogicum/blogicum/internal/access"
	"github.com/blogicum/blogicum/internal/models"
)

// ErrPageOutOfRange is returned when a list page past the last one is requested
var ErrPageOutOfRange = errors.New("page out of range")

// PostScope selects which posts a list query starts from
type PostScope int

// Post list scopes
const (
	ScopeAll      PostScope = iota // every post
	ScopeCategory                  // posts filed under CategoryID
	ScopeAuthor                    // posts written by AuthorID
)

const commentCountColumn = "(SELECT COUNT(*) FROM blog_comment WHERE blog_comment.post_id = blog_post.id) AS comment_count"

// PostQuery fully describes a paginated post listing before it is executed
type PostQuery struct {
	Scope      PostScope
	CategoryID int64
	AuthorID   int64

	Viewer access.Viewer
	Now    time.Time
	// SkipVisibility lists unpublished and scheduled posts too; set only when the
	// viewer owns every post in scope
	SkipVisibility bool

	Page     int
	PageSize int
}

// IndexQuery lists every post viewer may see
func IndexQuery(viewer access.Viewer, now time.Time, page, pageSize int) PostQuery {
	return PostQuery{Scope: ScopeAll, Viewer: viewer, Now: now, Page: page, PageSize: pageSize}
}

// CategoryQuery lists the posts of one category viewer may see
func CategoryQuery(categoryID int64, viewer access.Viewer, now time.Time, page, pageSize int) PostQuery {
	return PostQuery{Scope: ScopeCategory, CategoryID: categoryID, Viewer: viewer, Now: now, Page: page, PageSize: pageSize}
}

// ProfileQuery lists one author's posts. The author sees all of them.
func ProfileQuery(authorID int64, viewer access.Viewer, now time.Time, page, pageSize int) PostQuery {
	return PostQuery{
		Scope:          ScopeAuthor,
		AuthorID:       authorID,
		Viewer:         viewer,
		Now:            now,
		SkipVisibility: viewer.Is(authorID),
		Page:           page,
		PageSize:       pageSize,
	}
}

// Apply adds the scope and visibility conditions of q to a blog_post query
func (q PostQuery) Apply(tx *gorm.DB) *gorm.DB {
	switch q.Scope {
	case ScopeCategory:
		tx = tx.Where("blog_post.category_id = ?", q.CategoryID)
	case ScopeAuthor:
		tx = tx.Where("blog_post.author_id = ?", q.AuthorID)
	}
	if !q.SkipVisibility {
		tx = tx.Scopes(access.VisibleTo(q.Viewer, q.Now))
	}
	return tx
}

func (q PostQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q PostQuery) pageSize() int {
	if q.PageSize < 1 {
		return 10
	}
	return q.PageSize
}

// PostPage is one page of a post listing
type PostPage struct {
	Posts    []*models.Post
	Number   int
	PageSize int
	Total    int64
}

// NumPages returns the page count; an empty listing still has one page
func (p *PostPage) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// HasPrevious reports whether a page precedes this one
func (p *PostPage) HasPrevious() bool {
	return p.Number > 1
}

// HasNext reports whether a page follows this one
func (p *PostPage) HasNext() bool {
	return p.Number < p.NumPages()
}

// PreviousNumber returns the previous page number
func (p *PostPage) PreviousNumber() int {
	return p.Number - 1
}

// NextNumber returns the next page number
func (p *PostPage) NextNumber() int {
	return p.Number + 1
}

// List executes q: posts ordered by publication date, newest first, each annotated
// with its comment count
func (r *PostRepository) List(ctx context.Context, q PostQuery) (*PostPage, error) {
	page := &PostPage{Number: q.page(), PageSize: q.pageSize()}

	tx := r.db.WithContext(ctx)
	if err := q.Apply(tx.Model(&models.Post{})).Count(&page.Total).Error; err != nil {
		return nil, err
	}
	if page.Number > page.NumPages() {
		return nil, ErrPageOutOfRange
	}

	if err := q.Apply(tx.Model(&models.Post{})).
		Select("blog_post.*, " + commentCountColumn).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Order("blog_post.pub_date DESC").
		Order("blog_post.id DESC").
		Limit(page.PageSize).
		Offset((page.Number - 1) * page.PageSize).
		Find(&page.Posts).Error; err != nil {
		return nil, err
	}

	return page, nil
}
