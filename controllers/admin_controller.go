package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// AdminController manages categories and locations over JSON for configured administrators.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

type categoryRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=256"`
	Description *string `json:"description"`
	Slug        *string `json:"slug" binding:"omitempty,max=64,slug"`
	IsPublished *bool   `json:"is_published"`
}

type locationRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=256"`
	IsPublished *bool   `json:"is_published"`
}

// ListCategories returns every category, published or not.
func (a *AdminController) ListCategories(ctx *gin.Context) {
	var items []models.Category
	if err := a.db.Order("id").Find(&items).Error; err != nil {
		a.fail(ctx, "list categories", err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// CreateCategory adds a category; title and slug are required.
func (a *AdminController) CreateCategory(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, validationMessage(err))
		return
	}
	if req.Title == nil || req.Slug == nil || strings.TrimSpace(*req.Slug) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40071, "title and slug are required")
		return
	}
	if taken, err := a.slugTaken(*req.Slug, 0); err != nil {
		a.fail(ctx, "check slug", err)
		return
	} else if taken {
		utils.Error(ctx, http.StatusConflict, 40970, "slug already exists")
		return
	}

	item := models.Category{Title: strings.TrimSpace(*req.Title), Slug: *req.Slug, IsPublished: true}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.IsPublished != nil {
		item.IsPublished = *req.IsPublished
	}
	if err := a.db.Create(&item).Error; err != nil {
		a.fail(ctx, "create category", err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "created", gin.H{"category": item})
}

// UpdateCategory changes the supplied fields only.
func (a *AdminController) UpdateCategory(ctx *gin.Context) {
	var item models.Category
	if !a.load(ctx, &item) {
		return
	}
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, validationMessage(err))
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Slug != nil {
		if taken, err := a.slugTaken(*req.Slug, item.ID); err != nil {
			a.fail(ctx, "check slug", err)
			return
		} else if taken {
			utils.Error(ctx, http.StatusConflict, 40970, "slug already exists")
			return
		}
		updates["slug"] = *req.Slug
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if len(updates) > 0 {
		if err := a.db.Model(&models.Category{ID: item.ID}).Updates(updates).Error; err != nil {
			a.fail(ctx, "update category", err)
			return
		}
	}
	if err := a.db.Where("id = ?", item.ID).Take(&item).Error; err != nil {
		a.fail(ctx, "reload category", err)
		return
	}
	utils.Success(ctx, gin.H{"category": item})
}

// DeleteCategory removes the category and detaches its posts.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	var item models.Category
	if !a.load(ctx, &item) {
		return
	}
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("category_id = ?", item.ID).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, item.ID).Error
	})
	if err != nil {
		a.fail(ctx, "delete category", err)
		return
	}
	utils.Success(ctx, gin.H{"id": item.ID})
}

// ListLocations returns every location.
func (a *AdminController) ListLocations(ctx *gin.Context) {
	var items []models.Location
	if err := a.db.Order("id").Find(&items).Error; err != nil {
		a.fail(ctx, "list locations", err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// CreateLocation adds a location; name is required.
func (a *AdminController) CreateLocation(ctx *gin.Context) {
	var req locationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, validationMessage(err))
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40072, "name is required")
		return
	}
	item := models.Location{Name: strings.TrimSpace(*req.Name), IsPublished: true}
	if req.IsPublished != nil {
		item.IsPublished = *req.IsPublished
	}
	if err := a.db.Create(&item).Error; err != nil {
		a.fail(ctx, "create location", err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "created", gin.H{"location": item})
}

// UpdateLocation changes the supplied fields only.
func (a *AdminController) UpdateLocation(ctx *gin.Context) {
	var item models.Location
	if !a.load(ctx, &item) {
		return
	}
	var req locationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, validationMessage(err))
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if len(updates) > 0 {
		if err := a.db.Model(&models.Location{ID: item.ID}).Updates(updates).Error; err != nil {
			a.fail(ctx, "update location", err)
			return
		}
	}
	if err := a.db.Where("id = ?", item.ID).Take(&item).Error; err != nil {
		a.fail(ctx, "reload location", err)
		return
	}
	utils.Success(ctx, gin.H{"location": item})
}

// DeleteLocation removes the location and detaches its posts.
func (a *AdminController) DeleteLocation(ctx *gin.Context) {
	var item models.Location
	if !a.load(ctx, &item) {
		return
	}
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).Where("location_id = ?", item.ID).Update("location_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Location{}, item.ID).Error
	})
	if err != nil {
		a.fail(ctx, "delete location", err)
		return
	}
	utils.Success(ctx, gin.H{"id": item.ID})
}

// load fetches the row named by the :id parameter into dest, answering 404 when it does not exist.
func (a *AdminController) load(ctx *gin.Context, dest interface{}) bool {
	id, ok := parseID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40470, "not found")
		return false
	}
	if err := a.db.Where("id = ?", id).Take(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40470, "not found")
			return false
		}
		a.fail(ctx, "load", err)
		return false
	}
	return true
}

func (a *AdminController) slugTaken(slug string, exceptID uint) (bool, error) {
	var n int64
	err := a.db.Model(&models.Category{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n).Error
	return n > 0, err
}

func (a *AdminController) fail(ctx *gin.Context, op string, err error) {
	utils.Sugar.Errorw("admin operation failed", "op", op, "err", err)
	utils.Error(ctx, http.StatusInternalServerError, 50070, "internal error")
}

// validationMessage joins per-field messages into one line for JSON errors.
func validationMessage(err error) string {
	errs := bindErrors(err)
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(errs))
	for _, field := range fields {
		msg := errs[field]
		if field == nonFieldErrors {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, " ")
}
