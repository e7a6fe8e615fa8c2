package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenIDKey and ContextTokenExpiresKey let logout revoke the presented token.
	ContextTokenIDKey      = "token_id"
	ContextTokenExpiresKey = "token_expires"
)

// sessionToken returns the token from the session cookie, falling back to a Bearer header.
func sessionToken(ctx *gin.Context) string {
	if c, err := ctx.Cookie(config.Get().CookieName); err == nil && c != "" {
		return c
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUser identifies the viewer when a valid session is presented.
// Anonymous requests pass through untouched; nothing here rejects a request.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := sessionToken(ctx)
		if tokenString == "" {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil || utils.IsTokenRevoked(claims.ID) {
			ctx.Next()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Set(ContextTokenIDKey, claims.ID)
		if claims.ExpiresAt != nil {
			ctx.Set(ContextTokenExpiresKey, claims.ExpiresAt.Time)
		}
		ctx.Next()
	}
}

// AuthRequired redirects anonymous visitors to the login page, remembering where they were headed.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetUint(ContextUserIDKey) != 0 {
			ctx.Next()
			return
		}
		ctx.Redirect(http.StatusFound, "/auth/login/?next="+url.QueryEscape(ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// APIAuthRequired answers 401 JSON for anonymous API calls.
func APIAuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetUint(ContextUserIDKey) == 0 {
			utils.AbortWithError(ctx, http.StatusUnauthorized, 40101, "authentication required")
			return
		}
		ctx.Next()
	}
}

// AdminRequired answers 403 JSON unless the session user is listed in AdminUsernames.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !IsAdmin(ctx.GetString(ContextUsernameKey)) {
			utils.AbortWithError(ctx, http.StatusForbidden, 40301, "admin privileges required")
			return
		}
		ctx.Next()
	}
}

// IsAdmin reports whether username is configured as an administrator.
func IsAdmin(username string) bool {
	if username == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), username) {
			return true
		}
	}
	return false
}

// SetSession writes the session cookie for a freshly issued token.
func SetSession(ctx *gin.Context, token string, expiresAt time.Time) {
	cfg := config.Get()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, token, int(time.Until(expiresAt).Seconds()), "/", "", cfg.CookieSecure, true)
}

// ClearSession expires the session cookie.
func ClearSession(ctx *gin.Context) {
	cfg := config.Get()
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
