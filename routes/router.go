package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/controllers"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/templates"
	"github.com/cppla/blogicum/utils"
)

// SetupRouter wires routes, middlewares, templates and controllers.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.Ginzap(accessLogger(cfg), time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(utils.Logger, true))

	tmpl, err := templates.Load()
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.Use(cors.New(corsConfig(cfg)))
	r.Use(middleware.CurrentUser())
	r.Use(middleware.PageViewRecorder(db))
	r.Static("/media", cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(db)
	commentController := controllers.NewCommentController(db)
	categoryController := controllers.NewCategoryController(db)
	profileController := controllers.NewProfileController(db)
	authController := controllers.NewAuthController(db)
	pagesController := controllers.NewPagesController()
	statsController := controllers.NewStatsController(db)
	adminController := controllers.NewAdminController(db)

	limit := middleware.RateLimitMiddleware()

	r.GET("/", postController.Index)
	r.GET("/category/:slug/", categoryController.Posts)
	r.GET("/profile/:username/", profileController.Show)

	posts := r.Group("/posts")
	posts.GET("/:id/", postController.Detail)
	authed := posts.Group("", middleware.AuthRequired(), limit)
	authed.GET("/create/", postController.CreateForm)
	authed.POST("/create/", postController.Create)
	authed.GET("/:id/edit/", postController.EditForm)
	authed.POST("/:id/edit/", postController.Edit)
	authed.GET("/:id/delete/", postController.DeleteConfirm)
	authed.POST("/:id/delete/", postController.Delete)
	authed.POST("/:id/comment/", commentController.Create)
	authed.GET("/:id/edit_comment/:cid/", commentController.EditForm)
	authed.POST("/:id/edit_comment/:cid/", commentController.Edit)
	authed.GET("/:id/delete_comment/:cid/", commentController.DeleteConfirm)
	authed.POST("/:id/delete_comment/:cid/", commentController.Delete)

	profileEdit := r.Group("/profile/:username/edit", middleware.AuthRequired(), limit)
	profileEdit.GET("/", profileController.EditForm)
	profileEdit.POST("/", profileController.Edit)

	auth := r.Group("/auth", limit)
	auth.GET("/registration", authController.RegistrationForm)
	auth.POST("/registration", authController.Register)
	auth.GET("/login/", authController.LoginForm)
	auth.POST("/login/", authController.Login)
	auth.GET("/logout/", authController.Logout)
	auth.POST("/logout/", authController.Logout)
	auth.GET("/captcha", authController.Captcha)
	auth.GET("/password_change/", middleware.AuthRequired(), authController.PasswordChangeForm)
	auth.POST("/password_change/", middleware.AuthRequired(), authController.PasswordChange)
	auth.GET("/password_change/done/", middleware.AuthRequired(), authController.PasswordChangeDone)

	pages := r.Group("/pages")
	pages.GET("/about/", pagesController.About)
	pages.GET("/rules/", pagesController.Rules)

	api := r.Group("/api/v1")
	api.GET("/stats", statsController.GetStats)
	api.GET("/posts/:id/stats", statsController.GetPostStats)

	admin := api.Group("/admin", middleware.APIAuthRequired(), middleware.AdminRequired(), limit)
	admin.GET("/categories", adminController.ListCategories)
	admin.POST("/categories", adminController.CreateCategory)
	admin.PATCH("/categories/:id", adminController.UpdateCategory)
	admin.DELETE("/categories/:id", adminController.DeleteCategory)
	admin.GET("/locations", adminController.ListLocations)
	admin.POST("/locations", adminController.CreateLocation)
	admin.PATCH("/locations/:id", adminController.UpdateLocation)
	admin.DELETE("/locations/:id", adminController.DeleteLocation)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		pagesController.NotFound(ctx)
	})

	return r, nil
}

// accessLogger writes the HTTP access log to its own rolling file when GinPath is set.
func accessLogger(cfg config.AppConfig) *zap.Logger {
	if cfg.GinPath == "" {
		return utils.Logger
	}
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnw("access log file unavailable, using the application log", "path", cfg.GinPath, "err", err)
		return utils.Logger
	}
	return gl
}

func corsConfig(cfg config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		// credentials cannot be combined with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}
