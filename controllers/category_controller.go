package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// CategoryController renders the per-category feed.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// Posts lists the visible posts of a published category. An unknown or unpublished category is a 404,
// while a published category with nothing visible renders an empty page.
func (c *CategoryController) Posts(ctx *gin.Context) {
	slug := ctx.Param("slug")
	var category models.Category
	if err := c.db.Scopes(models.PublishedCategory(slug)).Take(&category).Error; err != nil {
		lookupFailed(ctx, "load category", err, "slug", slug)
		return
	}

	posts, page, err := listVisiblePosts(ctx, c.db, func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.category_id = ?", category.ID)
	})
	if err != nil {
		respondListError(ctx, "list category posts", err)
		return
	}
	render(ctx, http.StatusOK, "category.html", gin.H{"Category": category, "Posts": posts, "Page": page})
}
