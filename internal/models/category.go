package models

import (
	"time"
)

// Category is an independently publishable topic a post can be filed under
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Title       string    `gorm:"type:varchar(256);not null;column:title"`
	Description string    `gorm:"type:text;not null;column:description"`
	Slug        string    `gorm:"type:varchar(64);not null;uniqueIndex:blog_category_slug_ux;column:slug"`
	IsPublished bool      `gorm:"not null;column:is_published"`
	CreatedAt   time.Time `gorm:"not null;index;column:created_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "blog_category"
}

// Location is an independently publishable place a post can be tagged with
type Location struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `gorm:"type:varchar(256);not null;column:name"`
	IsPublished bool      `gorm:"not null;column:is_published"`
	CreatedAt   time.Time `gorm:"not null;index;column:created_at"`
}

// TableName specifies the table name for Location
func (Location) TableName() string {
	return "blog_location"
}
