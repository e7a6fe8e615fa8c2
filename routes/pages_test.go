package routes_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/models"
)

func TestStaticPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/pages/about/", "/pages/rules/"} {
		w := app.get(path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "<html", path)
	}

	w := app.get("/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestUnknownRoutes(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/no/such/page/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/no/such/page/")

	w = app.get("/api/v1/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, decode(t, w.Body.Bytes()).Code)
}

func statsPath(p models.Post) string {
	return fmt.Sprintf("/api/v1/posts/%d/stats", p.ID)
}

type statsData struct {
	UserCount      int64 `json:"user_count"`
	PostCount      int64 `json:"post_count"`
	CommentCount   int64 `json:"comment_count"`
	TodayPageViews int64 `json:"today_page_views"`
}

func TestStatsCountOnlyVisibleContent(t *testing.T) {
	app := newTestApp(t)
	author := app.user("author")
	reader := app.user("reader")
	open := app.category("travel", true)
	public := app.post(author, "PUBLIC", open)
	draft := app.post(author, "DRAFT", open, unpublished())
	app.comment(reader, public, "one")
	app.comment(author, draft, "hidden")

	stats := func(as *models.User) statsData {
		w := app.get("/api/v1/stats", as)
		require.Equal(t, http.StatusOK, w.Code)
		var s statsData
		require.NoError(t, json.Unmarshal(decode(t, w.Body.Bytes()).Data, &s))
		return s
	}

	anon := stats(nil)
	assert.EqualValues(t, 2, anon.UserCount)
	assert.EqualValues(t, 1, anon.PostCount)
	assert.EqualValues(t, 1, anon.CommentCount)

	own := stats(&author)
	assert.EqualValues(t, 2, own.PostCount)
	assert.EqualValues(t, 2, own.CommentCount)
}

func TestPageViewsAreCounted(t *testing.T) {
	app := newTestApp(t)
	author := app.user("author")
	p := app.post(author, "POPULAR", app.category("travel", true))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, app.get(postPath(p, ""), nil).Code)
	}
	app.get("/", nil)
	// failed and non-GET requests are not counted
	app.get("/posts/9999/", nil)

	var views []models.PageView
	require.NoError(t, app.db.Order("path").Find(&views).Error)
	require.Len(t, views, 2)
	assert.Equal(t, "/", views[0].Path)
	assert.EqualValues(t, 1, views[0].Count)
	assert.Equal(t, models.PostPath(p.ID), views[1].Path)
	assert.EqualValues(t, 3, views[1].Count)
	assert.Equal(t, models.Today(), views[1].Day)

	require.Equal(t, http.StatusOK, app.get(postPath(p, ""), nil).Code)

	w := app.get(statsPath(p), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ps struct {
		PostID        uint  `json:"post_id"`
		PageViews     int64 `json:"page_views"`
		CommentsCount int64 `json:"comments_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w.Body.Bytes()).Data, &ps))
	assert.Equal(t, p.ID, ps.PostID)
	assert.EqualValues(t, 4, ps.PageViews)
	assert.Zero(t, ps.CommentsCount)

	var total statsData
	require.NoError(t, json.Unmarshal(decode(t, app.get("/api/v1/stats", nil).Body.Bytes()).Data, &total))
	assert.EqualValues(t, 5, total.TodayPageViews)
}

func TestPostStatsHideInvisiblePosts(t *testing.T) {
	app := newTestApp(t)
	author := app.user("author")
	draft := app.post(author, "DRAFT", app.category("travel", true), unpublished())

	w := app.get(statsPath(draft), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40401, decode(t, w.Body.Bytes()).Code)

	assert.Equal(t, http.StatusOK, app.get(statsPath(draft), &author).Code)
}
