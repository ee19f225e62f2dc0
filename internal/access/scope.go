package access

import (
	"time"

	"gorm.io/gorm"
)

const (
	joinCategory = "LEFT JOIN blog_category ON blog_category.id = blog_post.category_id"
	joinLocation = "LEFT JOIN blog_location ON blog_location.id = blog_post.location_id"

	publishedCondition = "blog_post.is_published = ?" +
		" AND (blog_post.category_id IS NULL OR blog_category.is_published = ?)" +
		" AND (blog_post.location_id IS NULL OR blog_location.is_published = ?)" +
		" AND blog_post.pub_date <= ?"
)

// Scope is a composable gorm query modifier
type Scope func(*gorm.DB) *gorm.DB

func withJoins(tx *gorm.DB) *gorm.DB {
	return tx.Joins(joinCategory).Joins(joinLocation)
}

// Published restricts a blog_post query to posts visible to non-authors at now
func Published(now time.Time) Scope {
	return func(tx *gorm.DB) *gorm.DB {
		return withJoins(tx).Where(publishedCondition, true, true, true, now)
	}
}

// VisibleTo restricts a blog_post query to posts viewer may see at now
func VisibleTo(viewer Viewer, now time.Time) Scope {
	if !viewer.IsAuthenticated() {
		return Published(now)
	}
	return func(tx *gorm.DB) *gorm.DB {
		return withJoins(tx).Where(
			"blog_post.author_id = ? OR ("+publishedCondition+")",
			viewer.ID, true, true, true, now,
		)
	}
}
