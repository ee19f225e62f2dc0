package models

import (
	"time"
)

// Post represents a blog entry with a scheduled publication time
type Post struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Title       string    `gorm:"type:varchar(256);not null;column:title"`
	Text        string    `gorm:"type:text;not null;column:text"`
	PubDate     time.Time `gorm:"not null;index:blog_post_pub_date_idx;column:pub_date"`
	Image       string    `gorm:"type:varchar(255);not null;default:'';column:image"`
	IsPublished bool      `gorm:"not null;column:is_published"`
	CreatedAt   time.Time `gorm:"not null;index;column:created_at"`
	AuthorID    int64     `gorm:"not null;index;column:author_id"`
	CategoryID  *int64    `gorm:"index;column:category_id"`
	LocationID  *int64    `gorm:"index;column:location_id"`

	// Filled by list queries only
	CommentCount int64 `gorm:"->;-:migration;column:comment_count"`

	// Relationships
	Author   *User     `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
	Category *Category `gorm:"foreignKey:CategoryID;references:ID;constraint:OnDelete:SET NULL"`
	Location *Location `gorm:"foreignKey:LocationID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "blog_post"
}

// HasImage reports whether an image was uploaded for the post
func (p *Post) HasImage() bool {
	return p.Image != ""
}

// Comment represents a reader comment attached to a post
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Text      string    `gorm:"type:text;not null;column:text"`
	CreatedAt time.Time `gorm:"not null;index;column:created_at"`
	AuthorID  int64     `gorm:"not null;index;column:author_id"`
	PostID    int64     `gorm:"not null;index;column:post_id"`

	// Relationships
	Author *User `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
	Post   *Post `gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "blog_comment"
}
