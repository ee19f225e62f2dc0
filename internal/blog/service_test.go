package blog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blogicum/blogicum/internal/access"
	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/db/dbtest"
	"github.com/blogicum/blogicum/internal/models"
)

type testEnv struct {
	svc *Service
	fx  *dbtest.Fixtures
	db  *db.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := dbtest.New(t)
	return &testEnv{
		svc: NewService(db.NewRepository(database.DB), 10),
		fx:  dbtest.NewFixtures(t, database),
		db:  database,
	}
}

func TestGetPostVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	other := env.fx.User("other")
	hidden := env.fx.Category("hidden", false)

	tests := []struct {
		name    string
		post    *models.Post
		viewer  access.Viewer
		wantErr error
	}{
		{"published for anonymous", env.fx.Post(author, "open"), access.Anonymous, nil},
		{"unpublished for anonymous", env.fx.Post(author, "draft", dbtest.Unpublished()), access.Anonymous, ErrNotFound},
		{"unpublished for other user", env.fx.Post(author, "draft2", dbtest.Unpublished()), access.ViewerOf(other), ErrNotFound},
		{"unpublished for author", env.fx.Post(author, "draft3", dbtest.Unpublished()), access.ViewerOf(author), nil},
		{"scheduled for anonymous", env.fx.Post(author, "later", dbtest.PubDate(time.Now().Add(24*time.Hour))), access.Anonymous, ErrNotFound},
		{"scheduled for author", env.fx.Post(author, "later2", dbtest.PubDate(time.Now().Add(24*time.Hour))), access.ViewerOf(author), nil},
		{"hidden category for other user", env.fx.Post(author, "cat", dbtest.InCategory(hidden)), access.ViewerOf(other), ErrNotFound},
		{"hidden category for author", env.fx.Post(author, "cat2", dbtest.InCategory(hidden)), access.ViewerOf(author), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, _, err := env.svc.GetPost(ctx, tt.viewer, tt.post.ID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetPost() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && post.ID != tt.post.ID {
				t.Errorf("GetPost() id = %d, want %d", post.ID, tt.post.ID)
			}
		})
	}

	if _, _, err := env.svc.GetPost(ctx, access.Anonymous, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGetPostCommentsOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	post := env.fx.Post(author, "p")
	env.fx.Comment(author, post, "first")
	env.fx.Comment(author, post, "second")

	_, comments, err := env.svc.GetPost(ctx, access.Anonymous, post.ID)
	if err != nil {
		t.Fatalf("GetPost() error = %v", err)
	}
	if len(comments) != 2 || comments[0].Text != "first" || comments[1].Text != "second" {
		t.Errorf("comments out of order: %+v", comments)
	}
}

func TestListIndexPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	base := time.Now().UTC().Add(-48 * time.Hour)
	for i := 1; i <= 25; i++ {
		env.fx.Post(author, fmt.Sprintf("post %02d", i), dbtest.PubDate(base.Add(time.Duration(i)*time.Minute)))
	}

	page, err := env.svc.ListIndex(ctx, access.Anonymous, 3)
	if err != nil {
		t.Fatalf("ListIndex() error = %v", err)
	}
	if len(page.Posts) != 5 {
		t.Errorf("page 3 holds %d posts, want 5", len(page.Posts))
	}
	if page.HasNext() {
		t.Error("page 3 should be the last page")
	}

	if _, err := env.svc.ListIndex(ctx, access.Anonymous, 4); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListIndex(4) error = %v, want ErrNotFound", err)
	}
}

func TestListCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	travel := env.fx.Category("travel", true)
	hidden := env.fx.Category("hidden", false)
	env.fx.Post(author, "in travel", dbtest.InCategory(travel))
	env.fx.Post(author, "draft in travel", dbtest.InCategory(travel), dbtest.Unpublished())
	env.fx.Post(author, "elsewhere")

	category, page, err := env.svc.ListCategory(ctx, access.Anonymous, "travel", 1)
	if err != nil {
		t.Fatalf("ListCategory() error = %v", err)
	}
	if category.ID != travel.ID {
		t.Errorf("category = %d, want %d", category.ID, travel.ID)
	}
	if page.Total != 1 || page.Posts[0].Title != "in travel" {
		t.Errorf("ListCategory() total = %d, want only the published travel post", page.Total)
	}

	for _, slug := range []string{hidden.Slug, "missing"} {
		t.Run(slug, func(t *testing.T) {
			if _, _, err := env.svc.ListCategory(ctx, access.Anonymous, slug, 1); !errors.Is(err, ErrNotFound) {
				t.Errorf("ListCategory(%q) error = %v, want ErrNotFound", slug, err)
			}
		})
	}
}

func TestListProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	other := env.fx.User("other")
	env.fx.Post(author, "visible")
	env.fx.Post(author, "draft", dbtest.Unpublished())
	env.fx.Post(author, "scheduled", dbtest.PubDate(time.Now().Add(time.Hour)))
	env.fx.Post(other, "not mine")

	tests := []struct {
		name   string
		viewer access.Viewer
		want   int64
	}{
		{"owner sees everything", access.ViewerOf(author), 3},
		{"other user sees published", access.ViewerOf(other), 1},
		{"anonymous sees published", access.Anonymous, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, page, err := env.svc.ListProfile(ctx, tt.viewer, "author", 1)
			if err != nil {
				t.Fatalf("ListProfile() error = %v", err)
			}
			if user.ID != author.ID {
				t.Errorf("user = %d, want %d", user.ID, author.ID)
			}
			if page.Total != tt.want {
				t.Errorf("total = %d, want %d", page.Total, tt.want)
			}
		})
	}

	if _, _, err := env.svc.ListProfile(ctx, access.Anonymous, "ghost", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListProfile(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestPostOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	other := env.fx.User("other")
	post := env.fx.Post(author, "mine")

	in := PostInput{Title: "changed", Text: "t", PubDate: time.Now()}
	if _, _, err := env.svc.UpdatePost(ctx, access.ViewerOf(other), post.ID, in); !errors.Is(err, ErrNotOwner) {
		t.Errorf("UpdatePost(other) error = %v, want ErrNotOwner", err)
	}
	if _, err := env.svc.DeletePost(ctx, access.ViewerOf(other), post.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("DeletePost(other) error = %v, want ErrNotOwner", err)
	}
	if _, err := env.svc.DeletePost(ctx, access.ViewerOf(author), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeletePost(missing) error = %v, want ErrNotFound", err)
	}

	if _, _, err := env.svc.GetPost(ctx, access.Anonymous, post.ID); err != nil {
		t.Fatalf("post should survive a foreign delete: %v", err)
	}

	updated, _, err := env.svc.UpdatePost(ctx, access.ViewerOf(author), post.ID, in)
	if err != nil {
		t.Fatalf("UpdatePost(author) error = %v", err)
	}
	if updated.Title != "changed" {
		t.Errorf("Title = %q, want %q", updated.Title, "changed")
	}
}

func TestCreatePostAndImageReplace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	travel := env.fx.Category("travel", true)
	viewer := access.ViewerOf(author)

	post, err := env.svc.CreatePost(ctx, viewer, PostInput{
		Title: " Trip ", Text: "went places", PubDate: time.Now().Add(-time.Minute),
		CategoryID: &travel.ID, IsPublished: true, Image: "posts/a.jpg",
	})
	if err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	if post.AuthorID != author.ID || post.Title != "Trip" {
		t.Errorf("CreatePost() = %+v", post)
	}

	_, replaced, err := env.svc.UpdatePost(ctx, viewer, post.ID, PostInput{
		Title: "Trip", Text: "went places", PubDate: post.PubDate, CategoryID: &travel.ID, Image: "posts/b.jpg",
	})
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if replaced != "posts/a.jpg" {
		t.Errorf("replaced = %q, want posts/a.jpg", replaced)
	}

	_, replaced, err = env.svc.UpdatePost(ctx, viewer, post.ID, PostInput{Title: "Trip", Text: "x", PubDate: post.PubDate})
	if err != nil {
		t.Fatalf("UpdatePost() error = %v", err)
	}
	if replaced != "" {
		t.Errorf("update without image replaced %q", replaced)
	}

	missing := int64(999)
	if _, err := env.svc.CreatePost(ctx, viewer, PostInput{Title: "x", PubDate: time.Now(), CategoryID: &missing}); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("CreatePost(missing category) error = %v, want ErrInvalidChoice", err)
	}
	if _, err := env.svc.CreatePost(ctx, access.Anonymous, PostInput{Title: "x", PubDate: time.Now()}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("CreatePost(anonymous) error = %v, want ErrNotOwner", err)
	}
}

func TestDeletePostRemovesComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	post := env.fx.Post(author, "p")
	env.fx.Comment(author, post, "c1")

	if _, err := env.svc.DeletePost(ctx, access.ViewerOf(author), post.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	var count int64
	env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Errorf("%d comments left after post delete", count)
	}
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.fx.User("author")
	reader := env.fx.User("reader")
	post := env.fx.Post(author, "p")
	otherPost := env.fx.Post(author, "q")
	draft := env.fx.Post(author, "draft", dbtest.Unpublished())

	comment, err := env.svc.CreateComment(ctx, access.ViewerOf(reader), post.ID, "nice")
	if err != nil {
		t.Fatalf("CreateComment() error = %v", err)
	}

	page, err := env.svc.ListIndex(ctx, access.Anonymous, 1)
	if err != nil {
		t.Fatalf("ListIndex() error = %v", err)
	}
	for _, p := range page.Posts {
		if p.ID == post.ID && p.CommentCount != 1 {
			t.Errorf("CommentCount = %d, want 1", p.CommentCount)
		}
	}

	if _, err := env.svc.CreateComment(ctx, access.ViewerOf(reader), draft.ID, "sneaky"); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateComment(draft) error = %v, want ErrNotFound", err)
	}

	tests := []struct {
		name    string
		viewer  access.Viewer
		postID  int64
		wantErr error
	}{
		{"author of post is not author of comment", access.ViewerOf(author), post.ID, ErrNotOwner},
		{"wrong post in path", access.ViewerOf(reader), otherPost.ID, ErrNotFound},
		{"comment author", access.ViewerOf(reader), post.ID, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.UpdateComment(ctx, tt.viewer, tt.postID, comment.ID, "edited")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateComment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := env.svc.DeleteComment(ctx, access.ViewerOf(author), post.ID, comment.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("DeleteComment(post author) error = %v, want ErrNotOwner", err)
	}
	if err := env.svc.DeleteComment(ctx, access.ViewerOf(reader), post.ID, comment.ID); err != nil {
		t.Fatalf("DeleteComment() error = %v", err)
	}
	if _, err := env.svc.CommentForEdit(ctx, access.ViewerOf(reader), post.ID, comment.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted comment still found: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	me := env.fx.User("me")
	env.fx.User("taken")

	if _, err := env.svc.UpdateProfile(ctx, access.ViewerOf(me), ProfileInput{Username: "taken"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("UpdateProfile(taken) error = %v, want ErrUsernameTaken", err)
	}

	user, err := env.svc.UpdateProfile(ctx, access.ViewerOf(me), ProfileInput{Username: "me", FirstName: "Ann", LastName: "Lee", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.FullName() != "Ann Lee" {
		t.Errorf("FullName() = %q, want %q", user.FullName(), "Ann Lee")
	}
}
