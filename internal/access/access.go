// Package access decides who may see and who may change blog content.
//
// Visibility is expressed twice: IsVisible checks a single loaded post in memory, and VisibleTo
// builds the equivalent SQL condition for list queries. The two must agree on every record.
package access

import (
	"time"

	"github.com/blogicum/blogicum/internal/models"
)

// Viewer identifies the requester. The zero Viewer is anonymous.
type Viewer struct {
	ID       int64
	Username string
	IsStaff  bool
}

// Anonymous is the viewer of requests without a session
var Anonymous = Viewer{}

// ViewerOf returns the viewer for a logged in user; nil yields Anonymous
func ViewerOf(u *models.User) Viewer {
	if u == nil {
		return Anonymous
	}
	return Viewer{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

// IsAuthenticated reports whether the viewer is logged in
func (v Viewer) IsAuthenticated() bool {
	return v.ID != 0
}

// Is reports whether the viewer is the given user
func (v Viewer) Is(userID int64) bool {
	return v.IsAuthenticated() && v.ID == userID
}

// IsPublished reports whether a post is visible to readers other than its author at now.
// A set category or location FK whose association is not loaded counts as unpublished,
// matching the LEFT JOIN in Published.
func IsPublished(post *models.Post, now time.Time) bool {
	if !post.IsPublished {
		return false
	}
	if post.CategoryID != nil && (post.Category == nil || !post.Category.IsPublished) {
		return false
	}
	if post.LocationID != nil && (post.Location == nil || !post.Location.IsPublished) {
		return false
	}
	return !post.PubDate.After(now)
}

// IsVisible reports whether viewer may see post at now. Authors always see their own posts.
func IsVisible(post *models.Post, viewer Viewer, now time.Time) bool {
	if viewer.Is(post.AuthorID) {
		return true
	}
	return IsPublished(post, now)
}

// CanModify reports whether viewer may edit or delete an entity written by authorID
func CanModify(authorID int64, viewer Viewer) bool {
	return viewer.Is(authorID)
}
