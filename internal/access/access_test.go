package access

import (
	"testing"
	"time"

	"github.com/blogicum/blogicum/internal/models"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestIsVisible(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	author := Viewer{ID: 1, Username: "author"}
	other := Viewer{ID: 2, Username: "other"}

	published := &models.Category{ID: 10, IsPublished: true}
	hidden := &models.Category{ID: 11, IsPublished: false}
	openPlace := &models.Location{ID: 20, IsPublished: true}
	closedPlace := &models.Location{ID: 21, IsPublished: false}

	base := func() *models.Post {
		return &models.Post{ID: 100, AuthorID: 1, IsPublished: true, PubDate: now.Add(-time.Hour)}
	}

	tests := []struct {
		name   string
		mutate func(*models.Post)
		viewer Viewer
		want   bool
	}{
		{"plain published post", func(p *models.Post) {}, other, true},
		{"anonymous sees published", func(p *models.Post) {}, Anonymous, true},
		{"unpublished", func(p *models.Post) { p.IsPublished = false }, other, false},
		{"future pub date", func(p *models.Post) { p.PubDate = now.Add(time.Minute) }, other, false},
		{"pub date exactly now", func(p *models.Post) { p.PubDate = now }, other, true},
		{"published category", func(p *models.Post) { p.CategoryID, p.Category = int64Ptr(10), published }, other, true},
		{"hidden category", func(p *models.Post) { p.CategoryID, p.Category = int64Ptr(11), hidden }, other, false},
		{"category not loaded", func(p *models.Post) { p.CategoryID = int64Ptr(10) }, other, false},
		{"published location", func(p *models.Post) { p.LocationID, p.Location = int64Ptr(20), openPlace }, other, true},
		{"hidden location", func(p *models.Post) { p.LocationID, p.Location = int64Ptr(21), closedPlace }, other, false},
		{"author sees unpublished", func(p *models.Post) { p.IsPublished = false }, author, true},
		{"author sees scheduled", func(p *models.Post) { p.PubDate = now.Add(24 * time.Hour) }, author, true},
		{"author sees hidden category", func(p *models.Post) { p.CategoryID, p.Category = int64Ptr(11), hidden }, author, true},
		{"anonymous never matches author id zero", func(p *models.Post) { p.AuthorID = 0; p.IsPublished = false }, Anonymous, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := base()
			tt.mutate(post)
			if got := IsVisible(post, tt.viewer, now); got != tt.want {
				t.Errorf("IsVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanModify(t *testing.T) {
	tests := []struct {
		name     string
		authorID int64
		viewer   Viewer
		want     bool
	}{
		{"author", 1, Viewer{ID: 1}, true},
		{"other user", 1, Viewer{ID: 2}, false},
		{"anonymous", 1, Anonymous, false},
		{"staff is not the author", 1, Viewer{ID: 3, IsStaff: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModify(tt.authorID, tt.viewer); got != tt.want {
				t.Errorf("CanModify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewerOf(t *testing.T) {
	if v := ViewerOf(nil); v.IsAuthenticated() {
		t.Errorf("ViewerOf(nil) = %+v, want anonymous", v)
	}
	v := ViewerOf(&models.User{ID: 5, Username: "ann", IsStaff: true})
	if !v.IsAuthenticated() || v.ID != 5 || v.Username != "ann" || !v.IsStaff {
		t.Errorf("ViewerOf(user) = %+v", v)
	}
}
