package admin

import (
	"time"

	"github.com/blogicum/blogicum/internal/models"
)

// CategoryObject is the wire form of a category
type CategoryObject struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

func categoryObject(c *models.Category) *CategoryObject {
	return &CategoryObject{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Slug:        c.Slug,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
	}
}

// LocationObject is the wire form of a location
type LocationObject struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}

func locationObject(l *models.Location) *LocationObject {
	return &LocationObject{ID: l.ID, Name: l.Name, IsPublished: l.IsPublished, CreatedAt: l.CreatedAt}
}

// PostObject is the wire form of a post in back-office listings
type PostObject struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	PubDate     time.Time `json:"pub_date"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	Author      string    `json:"author"`
	Category    string    `json:"category,omitempty"`
	Location    string    `json:"location,omitempty"`
	Image       string    `json:"image,omitempty"`
}

func postObject(p *models.Post) *PostObject {
	obj := &PostObject{
		ID:          p.ID,
		Title:       p.Title,
		Text:        p.Text,
		PubDate:     p.PubDate,
		IsPublished: p.IsPublished,
		CreatedAt:   p.CreatedAt,
		Image:       p.Image,
	}
	if p.Author != nil {
		obj.Author = p.Author.Username
	}
	if p.Category != nil {
		obj.Category = p.Category.Title
	}
	if p.Location != nil {
		obj.Location = p.Location.Name
	}
	return obj
}

// CommentObject is the wire form of a comment in back-office listings
type CommentObject struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	PostID    int64     `json:"post_id"`
	PostTitle string    `json:"post_title"`
}

func commentObject(c *models.Comment) *CommentObject {
	obj := &CommentObject{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt, PostID: c.PostID}
	if c.Author != nil {
		obj.Author = c.Author.Username
	}
	if c.Post != nil {
		obj.PostTitle = c.Post.Title
	}
	return obj
}
