package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// StatsController provides blog statistics as JSON.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate counts. Posts and comments are counted only where the viewer may read them.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount, postCount, commentCount, todayViews int64
	visible := models.VisiblePosts(getUserID(ctx), nowUTC())

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		s.fail(ctx, "count users", err)
		return
	}
	if err := s.db.Model(&models.Post{}).Scopes(visible).Count(&postCount).Error; err != nil {
		s.fail(ctx, "count posts", err)
		return
	}
	err := s.db.Model(&models.Comment{}).
		Where("post_id IN (?)", s.db.Model(&models.Post{}).Scopes(visible).Select("posts.id")).
		Count(&commentCount).Error
	if err != nil {
		s.fail(ctx, "count comments", err)
		return
	}
	if err := s.db.Model(&models.PageView{}).Where("day = ?", models.Today()).Select("COALESCE(SUM(count),0)").Scan(&todayViews).Error; err != nil {
		s.fail(ctx, "sum page views", err)
		return
	}

	utils.Success(ctx, gin.H{
		"user_count":       userCount,
		"post_count":       postCount,
		"comment_count":    commentCount,
		"today_page_views": todayViews,
	})
}

// GetPostStats returns page views and the comment count of a post the viewer may read.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	post, err := findVisiblePost(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		s.fail(ctx, "load post", err)
		return
	}

	var views int64
	if err := s.db.Model(&models.PageView{}).Where("path = ?", models.PostPath(post.ID)).Select("COALESCE(SUM(count),0)").Scan(&views).Error; err != nil {
		s.fail(ctx, "sum post views", err)
		return
	}

	utils.Success(ctx, gin.H{
		"post_id":        post.ID,
		"page_views":     views,
		"comments_count": post.CommentCount,
	})
}

func (s *StatsController) fail(ctx *gin.Context, op string, err error) {
	utils.Sugar.Errorw("stats query failed", "op", op, "err", err)
	utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load stats")
}
