package routes_test

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/routes"
	"github.com/cppla/blogicum/utils"
)

const testPassword = "s3cret-pass"

type testApp struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	now    time.Time
}

func newTestApp(t *testing.T, tweak ...func(*config.AppConfig)) *testApp {
	t.Helper()
	configure(t, tweak...)
	db, err := config.OpenDatabase(sqlite.Open(filepath.Join(t.TempDir(), "blog.db")), "silent")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return newTestAppOn(t, db)
}

// configure installs a test configuration: no registration throttling, media in a temp dir.
func configure(t *testing.T, tweak ...func(*config.AppConfig)) {
	t.Helper()
	cfg := config.AppConfig{
		JWTSecret:                     "test-secret",
		GinMode:                       "test",
		LogLevel:                      "silent",
		RateLimitPerMinute:            100000,
		MediaRoot:                     t.TempDir(),
		AdminUsernames:                []string{"admin"},
		RegisterAttemptCooldownSec:    -1,
		RegisterMaxPerIPPerDay:        -1,
		RegisterFailedMaxPerIPPerHour: 1000,
	}
	for _, fn := range tweak {
		fn(&cfg)
	}
	config.Set(cfg)
	utils.ResetRegistrationCounters()
}

// newTestAppOn migrates db and builds the router on top of it.
func newTestAppOn(t *testing.T, db *gorm.DB) *testApp {
	t.Helper()
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	router, err := routes.SetupRouter(db)
	require.NoError(t, err)
	return &testApp{t: t, db: db, router: router, now: time.Now().UTC()}
}

func (a *testApp) user(username string) models.User {
	a.t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(a.t, err)
	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: hash}
	require.NoError(a.t, a.db.Create(&u).Error)
	return u
}

func (a *testApp) category(slug string, published bool) models.Category {
	a.t.Helper()
	c := models.Category{Title: "Category " + slug, Slug: slug, IsPublished: published}
	require.NoError(a.t, a.db.Create(&c).Error)
	return c
}

func (a *testApp) location(name string) models.Location {
	a.t.Helper()
	l := models.Location{Name: name, IsPublished: true}
	require.NoError(a.t, a.db.Create(&l).Error)
	return l
}

type postOpt func(*models.Post)

func unpublished() postOpt { return func(p *models.Post) { p.IsPublished = false } }

func publishedAt(t time.Time) postOpt { return func(p *models.Post) { p.PubDate = t } }

func inCategory(c *models.Category) postOpt {
	return func(p *models.Post) {
		if c == nil {
			p.CategoryID = nil
			return
		}
		p.CategoryID = &c.ID
	}
}

// post creates a public post in category unless options say otherwise.
func (a *testApp) post(author models.User, title string, category models.Category, opts ...postOpt) models.Post {
	a.t.Helper()
	p := models.Post{
		Title:       title,
		Text:        gofakeit.Paragraph(1, 2, 8, " "),
		PubDate:     a.now.Add(-time.Hour),
		IsPublished: true,
		AuthorID:    author.ID,
		CategoryID:  &category.ID,
	}
	for _, opt := range opts {
		opt(&p)
	}
	require.NoError(a.t, a.db.Create(&p).Error)
	return p
}

func (a *testApp) comment(author models.User, post models.Post, text string) models.Comment {
	a.t.Helper()
	c := models.Comment{Text: text, PostID: post.ID, AuthorID: author.ID}
	require.NoError(a.t, a.db.Create(&c).Error)
	return c
}

func (a *testApp) sessionCookie(u *models.User) *http.Cookie {
	a.t.Helper()
	token, _, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(a.t, err)
	return &http.Cookie{Name: config.Get().CookieName, Value: token}
}

func (a *testApp) serve(req *http.Request, as *models.User) *httptest.ResponseRecorder {
	a.t.Helper()
	if as != nil {
		req.AddCookie(a.sessionCookie(as))
	}
	req.RemoteAddr = "192.0.2.10:40000"
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string, as *models.User) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, path, nil), as)
}

func (a *testApp) postForm(path string, form url.Values, as *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(req, as)
}

type upload struct {
	field, filename string
	content         []byte
}

func (a *testApp) postMultipart(path string, form url.Values, file *upload, as *models.User) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(a.t, mw.WriteField(k, v))
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.filename)
		require.NoError(a.t, err)
		_, err = io.Copy(fw, bytes.NewReader(file.content))
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req, as)
}

func (a *testApp) postJSON(method, path, body string, as *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.serve(req, as)
}

func (a *testApp) reload(dest interface{}, id uint) error {
	return a.db.Where("id = ?", id).Take(dest).Error
}

func postPath(p models.Post, suffix string) string {
	return fmt.Sprintf("/posts/%d/%s", p.ID, suffix)
}

func commentCountMarker(p models.Post, n int) string {
	return fmt.Sprintf(`data-post="%d">%d</span>`, p.ID, n)
}
