package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// viewer is what every template knows about the person looking at the page.
type viewer struct {
	ID       uint
	Username string
	IsAdmin  bool
}

func (v viewer) Authenticated() bool { return v.ID != 0 }

func getUserID(ctx *gin.Context) uint {
	return ctx.GetUint(middleware.ContextUserIDKey)
}

func currentViewer(ctx *gin.Context) viewer {
	username := ctx.GetString(middleware.ContextUsernameKey)
	return viewer{
		ID:       getUserID(ctx),
		Username: username,
		IsAdmin:  middleware.IsAdmin(username),
	}
}

// render executes the named template with the viewer and site name merged into data.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Viewer"] = currentViewer(ctx)
	data["SiteName"] = config.Get().SiteName
	data["Year"] = time.Now().Year()
	ctx.HTML(status, name, data)
}

func notFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "404.html", gin.H{"Path": ctx.Request.URL.Path})
	ctx.Abort()
}

// serverError logs err with the failing operation and renders the 500 page.
func serverError(ctx *gin.Context, op string, err error, fields ...interface{}) {
	kv := append([]interface{}{"op", op, "path", ctx.Request.URL.Path, "err", err}, fields...)
	utils.Sugar.Errorw("request failed", kv...)
	render(ctx, http.StatusInternalServerError, "500.html", nil)
	ctx.Abort()
}

// lookupFailed answers 404 for a missing row and 500 for anything else.
func lookupFailed(ctx *gin.Context, op string, err error, fields ...interface{}) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		notFound(ctx)
		return
	}
	serverError(ctx, op, err, fields...)
}

// parseID reads a positive integer path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// loadSessionUser loads the account behind the session. A session whose account no longer exists
// is cleared and sent to the login page.
func loadSessionUser(ctx *gin.Context, db *gorm.DB) (*models.User, bool) {
	var user models.User
	err := db.Where("id = ?", getUserID(ctx)).Take(&user).Error
	if err == nil {
		return &user, true
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		middleware.ClearSession(ctx)
		ctx.Redirect(http.StatusFound, loginURL(ctx.Request.URL.RequestURI()))
		ctx.Abort()
		return nil, false
	}
	serverError(ctx, "load session user", err, "user_id", getUserID(ctx))
	return nil, false
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func loginURL(next string) string {
	return "/auth/login/?next=" + url.QueryEscape(next)
}

// safeNext accepts only local absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// nowUTC is the clock every visibility decision is made against.
var nowUTC = func() time.Time { return time.Now().UTC() }
