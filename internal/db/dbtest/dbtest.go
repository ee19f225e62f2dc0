// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/sqlite"

	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/models"
)

var counter atomic.Int64

// New returns a migrated database private to the test
func New(t testing.TB) *db.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:blogicum_test_%d?mode=memory&cache=shared", counter.Add(1))

	database, err := db.Open(sqlite.Open(dsn), "SILENT")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// Fixtures creates rows with sensible defaults
type Fixtures struct {
	t  testing.TB
	db *db.DB
}

// NewFixtures creates a fixture helper bound to database
func NewFixtures(t testing.TB, database *db.DB) *Fixtures {
	return &Fixtures{t: t, db: database}
}

// User creates a user with the given username
func (f *Fixtures) User(username string) *models.User {
	f.t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "!"}
	if err := f.db.Create(user).Error; err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return user
}

// Category creates a category
func (f *Fixtures) Category(slug string, published bool) *models.Category {
	f.t.Helper()
	category := &models.Category{Title: strings.ToUpper(slug[:1]) + slug[1:], Description: "About " + slug, Slug: slug, IsPublished: published}
	if err := f.db.Create(category).Error; err != nil {
		f.t.Fatalf("create category: %v", err)
	}
	return category
}

// Location creates a location
func (f *Fixtures) Location(name string, published bool) *models.Location {
	f.t.Helper()
	location := &models.Location{Name: name, IsPublished: published}
	if err := f.db.Create(location).Error; err != nil {
		f.t.Fatalf("create location: %v", err)
	}
	return location
}

// PostOption customizes a fixture post
type PostOption func(*models.Post)

// Unpublished marks the post as hidden
func Unpublished() PostOption {
	return func(p *models.Post) { p.IsPublished = false }
}

// PubDate sets the publication date
func PubDate(t time.Time) PostOption {
	return func(p *models.Post) { p.PubDate = t.UTC() }
}

// InCategory files the post under c
func InCategory(c *models.Category) PostOption {
	return func(p *models.Post) { p.CategoryID = &c.ID }
}

// AtLocation tags the post with l
func AtLocation(l *models.Location) PostOption {
	return func(p *models.Post) { p.LocationID = &l.ID }
}

// Post creates a published post dated an hour ago
func (f *Fixtures) Post(author *models.User, title string, opts ...PostOption) *models.Post {
	f.t.Helper()
	post := &models.Post{
		Title:       title,
		Text:        "Text of " + title,
		PubDate:     time.Now().UTC().Add(-time.Hour).Truncate(time.Second),
		IsPublished: true,
		AuthorID:    author.ID,
	}
	for _, opt := range opts {
		opt(post)
	}
	if err := f.db.Omit("Author", "Category", "Location").Create(post).Error; err != nil {
		f.t.Fatalf("create post: %v", err)
	}
	return post
}

// Comment creates a comment on post
func (f *Fixtures) Comment(author *models.User, post *models.Post, text string) *models.Comment {
	f.t.Helper()
	comment := &models.Comment{Text: text, AuthorID: author.ID, PostID: post.ID}
	if err := f.db.Omit("Author", "Post").Create(comment).Error; err != nil {
		f.t.Fatalf("create comment: %v", err)
	}
	return comment
}
