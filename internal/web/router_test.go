package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogicum/blogicum/internal/admin"
	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/internal/blog"
	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/db/dbtest"
	"github.com/blogicum/blogicum/internal/media"
	"github.com/blogicum/blogicum/internal/models"
	"github.com/blogicum/blogicum/internal/session"
	"github.com/blogicum/blogicum/pkg/config"
)

const cookieName = "sessionid"

type siteEnv struct {
	engine   *gin.Engine
	auth     *auth.Service
	fx       *dbtest.Fixtures
	db       *db.DB
	mediaDir string
}

func newSiteEnv(t *testing.T) *siteEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.New(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := db.NewRepository(database.DB)
	sessions := session.NewWithClient(client, time.Hour)
	authSvc := auth.NewService(db.NewUserRepository(repo), sessions, auth.WithBcryptCost(bcrypt.MinCost))

	mediaDir := t.TempDir()
	store, err := media.NewStore(mediaDir, "/media/")
	if err != nil {
		t.Fatalf("media.NewStore() error = %v", err)
	}

	router := NewRouter(Deps{
		Blog:    blog.NewService(repo, 10),
		Auth:    authSvc,
		Media:   store,
		Admin:   admin.NewHandler(repo),
		Session: config.SessionConfig{CookieName: cookieName, TTL: time.Hour},
		Health: []HealthCheck{
			{Name: "database", Check: database.Health},
			{Name: "redis", Check: sessions.Health},
		},
	})
	engine := gin.New()
	if err := router.SetupRoutes(engine); err != nil {
		t.Fatalf("SetupRoutes() error = %v", err)
	}

	return &siteEnv{engine: engine, auth: authSvc, fx: dbtest.NewFixtures(t, database), db: database, mediaDir: mediaDir}
}

// login starts a session for user and returns its cookie
func (e *siteEnv) login(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, err := e.auth.Login(context.Background(), user)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return &http.Cookie{Name: cookieName, Value: token}
}

func (e *siteEnv) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestUnpublishedPostVisibleToAuthorOnly(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	other := env.fx.User("other")
	post := env.fx.Post(author, "Secret draft", dbtest.Unpublished())
	target := fmt.Sprintf("/posts/%d", post.ID)

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous", nil, http.StatusNotFound},
		{"other user", env.login(t, other), http.StatusNotFound},
		{"author", env.login(t, author), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, target, nil, tt.cookie)
			if w.Code != tt.want {
				t.Errorf("GET %s status = %d, want %d", target, w.Code, tt.want)
			}
		})
	}
}

func TestNonAuthorDeleteRedirects(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	other := env.fx.User("other")
	post := env.fx.Post(author, "Keep me")
	detail := fmt.Sprintf("/posts/%d", post.ID)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			w := env.do(t, method, detail+"/delete", url.Values{}, env.login(t, other))
			if w.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", w.Code)
			}
			if loc := w.Header().Get("Location"); loc != detail {
				t.Errorf("Location = %q, want %q", loc, detail)
			}
		})
	}

	var count int64
	env.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	if count != 1 {
		t.Fatal("post deleted by a non-author")
	}

	w := env.do(t, http.MethodPost, detail+"/delete", url.Values{}, env.login(t, author))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Errorf("author delete = %d %q, want 302 to /", w.Code, w.Header().Get("Location"))
	}
	env.db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
	if count != 0 {
		t.Error("post still exists after author delete")
	}
}

func TestCommentIncrementsCount(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	reader := env.fx.User("reader")
	post := env.fx.Post(author, "Discuss")

	w := env.do(t, http.MethodGet, "/", nil, nil)
	if !strings.Contains(w.Body.String(), "Comments (0)") {
		t.Fatalf("index does not show zero comments: %s", w.Body.String())
	}

	target := fmt.Sprintf("/posts/%d/comment", post.ID)
	w = env.do(t, http.MethodPost, target, url.Values{"text": {"Great post"}}, env.login(t, reader))
	if w.Code != http.StatusFound {
		t.Fatalf("POST %s status = %d, want 302", target, w.Code)
	}

	w = env.do(t, http.MethodGet, "/", nil, nil)
	if !strings.Contains(w.Body.String(), "Comments (1)") {
		t.Error("index does not show the new comment count")
	}

	w = env.do(t, http.MethodPost, target, url.Values{"text": {""}}, env.login(t, reader))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "This field is required.") {
		t.Errorf("empty comment = %d, want form error", w.Code)
	}
}

func TestIndexPagination(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	base := time.Now().UTC().Add(-48 * time.Hour)
	for i := 1; i <= 25; i++ {
		env.fx.Post(author, fmt.Sprintf("Post number %02d", i), dbtest.PubDate(base.Add(time.Duration(i)*time.Minute)))
	}

	tests := []struct {
		query    string
		want     int
		contains string
		missing  string
	}{
		{"", http.StatusOK, "Post number 25", "Post number 15"},
		{"?page=2", http.StatusOK, "Post number 15", "Post number 16"},
		{"?page=3", http.StatusOK, "Post number 01", "Post number 06"},
		{"?page=4", http.StatusNotFound, "", ""},
		{"?page=0", http.StatusNotFound, "", ""},
		{"?page=abc", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run("page"+tt.query, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/"+tt.query, nil, nil)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			body := w.Body.String()
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
			if tt.missing != "" && strings.Contains(body, tt.missing) {
				t.Errorf("body unexpectedly contains %q", tt.missing)
			}
		})
	}
}

func TestLoginRequired(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	post := env.fx.Post(author, "p")

	paths := []string{
		"/posts/create",
		fmt.Sprintf("/posts/%d/edit", post.ID),
		fmt.Sprintf("/posts/%d/comment", post.ID),
		"/profile/edit",
		"/auth/password_change",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, nil, nil)
			if w.Code != http.StatusFound {
				t.Fatalf("status = %d, want 302", w.Code)
			}
			want := "/auth/login?next=" + url.QueryEscape(path)
			if loc := w.Header().Get("Location"); loc != want {
				t.Errorf("Location = %q, want %q", loc, want)
			}
		})
	}
}

func TestCreatePost(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	travel := env.fx.Category("travel", true)
	cookie := env.login(t, author)

	w := env.do(t, http.MethodGet, "/posts/create", nil, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Travel") {
		t.Fatalf("create form = %d, want 200 listing categories", w.Code)
	}

	w = env.do(t, http.MethodPost, "/posts/create", url.Values{"title": {"No category"}, "text": {"x"}, "pub_date": {"2024-01-02"}}, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "This field is required.") {
		t.Errorf("missing category = %d, want form error", w.Code)
	}

	form := url.Values{
		"title":        {"Trip"},
		"text":         {"Went places"},
		"pub_date":     {"2024-01-02T10:30"},
		"category":     {fmt.Sprint(travel.ID)},
		"is_published": {"on"},
	}
	w = env.do(t, http.MethodPost, "/posts/create", form, cookie)
	if w.Code != http.StatusFound {
		t.Fatalf("create post status = %d, want 302: %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/profile/author" {
		t.Errorf("Location = %q, want /profile/author", loc)
	}

	var post models.Post
	if err := env.db.Where("title = ?", "Trip").First(&post).Error; err != nil {
		t.Fatalf("created post not found: %v", err)
	}
	if !post.PubDate.Equal(time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("PubDate = %v, want 2024-01-02 10:30 UTC", post.PubDate)
	}
	if post.AuthorID != author.ID || !post.IsPublished {
		t.Errorf("post = %+v", post)
	}
}

func TestLoginLogout(t *testing.T) {
	env := newSiteEnv(t)
	if _, err := env.auth.Register(context.Background(), auth.RegisterInput{Username: "writer", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	w := env.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"writer"}, "password": {"wrong"}}, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "correct username and password") {
		t.Errorf("bad login = %d, want form error", w.Code)
	}

	w = env.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"writer"}, "password": {"s3cret-pass"}, "next": {"/posts/create"}}, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/posts/create" {
		t.Fatalf("login = %d %q, want 302 to /posts/create", w.Code, w.Header().Get("Location"))
	}
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatal("login did not set an HttpOnly session cookie")
	}

	if w := env.do(t, http.MethodGet, "/posts/create", nil, cookie); w.Code != http.StatusOK {
		t.Errorf("create form with session = %d, want 200", w.Code)
	}

	env.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	if w := env.do(t, http.MethodGet, "/posts/create", nil, cookie); w.Code != http.StatusFound {
		t.Errorf("create form after logout = %d, want 302", w.Code)
	}
}

func TestPasswordChange(t *testing.T) {
	env := newSiteEnv(t)
	ctx := context.Background()
	user, err := env.auth.Register(ctx, auth.RegisterInput{Username: "writer", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	cookie := env.login(t, user)

	w := env.do(t, http.MethodPost, "/auth/password_change", url.Values{
		"old_password":  {"wrong-pass"},
		"new_password1": {"brand-new-pass"},
		"new_password2": {"brand-new-pass"},
	}, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "old password was entered incorrectly") {
		t.Errorf("wrong old password = %d, want form error", w.Code)
	}

	w = env.do(t, http.MethodPost, "/auth/password_change", url.Values{
		"old_password":  {"s3cret-pass"},
		"new_password1": {"brand-new-pass"},
		"new_password2": {"brand-new-pass"},
	}, cookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/profile/writer" {
		t.Fatalf("password change = %d %q, want 302 to /profile/writer", w.Code, w.Header().Get("Location"))
	}
	if _, err := env.auth.Authenticate(ctx, "writer", "brand-new-pass"); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
}

func TestRegistration(t *testing.T) {
	env := newSiteEnv(t)
	form := url.Values{"username": {"newbie"}, "password1": {"long-enough"}, "password2": {"long-enough"}}

	w := env.do(t, http.MethodPost, "/auth/registration", form, nil)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Fatalf("registration = %d %q, want 302 to /", w.Code, w.Header().Get("Location"))
	}

	w = env.do(t, http.MethodPost, "/auth/registration", form, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "already exists") {
		t.Errorf("duplicate registration = %d, want form error", w.Code)
	}

	form.Set("password2", "different")
	form.Set("username", "other")
	w = env.do(t, http.MethodPost, "/auth/registration", form, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "didn&#39;t match") {
		t.Errorf("mismatched passwords = %d, want form error", w.Code)
	}
}

func TestProfile(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	env.fx.User("taken")
	env.fx.Post(author, "Public thoughts")
	env.fx.Post(author, "Private thoughts", dbtest.Unpublished())

	w := env.do(t, http.MethodGet, "/profile/author", nil, nil)
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), "Private thoughts") {
		t.Errorf("anonymous profile = %d, must hide unpublished posts", w.Code)
	}

	cookie := env.login(t, author)
	w = env.do(t, http.MethodGet, "/profile/author", nil, cookie)
	if !strings.Contains(w.Body.String(), "Private thoughts") {
		t.Error("owner profile should list unpublished posts")
	}

	if w := env.do(t, http.MethodGet, "/profile/ghost", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing profile = %d, want 404", w.Code)
	}

	w = env.do(t, http.MethodPost, "/profile/edit", url.Values{"username": {"taken"}}, cookie)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "already exists") {
		t.Errorf("duplicate username = %d, want form error", w.Code)
	}

	w = env.do(t, http.MethodPost, "/profile/edit", url.Values{"username": {"renamed"}, "first_name": {"Ann"}}, cookie)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/profile/renamed" {
		t.Errorf("profile edit = %d %q, want 302 to /profile/renamed", w.Code, w.Header().Get("Location"))
	}
}

func TestCommentEditGuards(t *testing.T) {
	env := newSiteEnv(t)
	author := env.fx.User("author")
	reader := env.fx.User("reader")
	post := env.fx.Post(author, "p")
	other := env.fx.Post(author, "q")
	comment := env.fx.Comment(reader, post, "hello")

	tests := []struct {
		name     string
		target   string
		cookie   *http.Cookie
		want     int
		location string
	}{
		{"non-author redirected", fmt.Sprintf("/posts/%d/comment/%d/edit", post.ID, comment.ID), env.login(t, author), http.StatusFound, fmt.Sprintf("/posts/%d", post.ID)},
		{"wrong post is 404", fmt.Sprintf("/posts/%d/comment/%d/edit", other.ID, comment.ID), env.login(t, reader), http.StatusNotFound, ""},
		{"author may edit", fmt.Sprintf("/posts/%d/comment/%d/edit", post.ID, comment.ID), env.login(t, reader), http.StatusOK, ""},
		{"delete confirmation", fmt.Sprintf("/posts/%d/comment/%d/delete", post.ID, comment.ID), env.login(t, reader), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.target, nil, tt.cookie)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.location != "" && w.Header().Get("Location") != tt.location {
				t.Errorf("Location = %q, want %q", w.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestHealthAndNotFound(t *testing.T) {
	env := newSiteEnv(t)

	if w := env.do(t, http.MethodGet, "/health", nil, nil); w.Code != http.StatusOK {
		t.Errorf("/health = %d, want 200: %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/no/such/page", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/category/missing", nil, nil); w.Code != http.StatusNotFound {
		t.Errorf("missing category = %d, want 404", w.Code)
	}
}
