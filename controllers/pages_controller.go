package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PagesController serves the static about and rules pages.
type PagesController struct{}

// NewPagesController creates a PagesController.
func NewPagesController() *PagesController { return &PagesController{} }

func (p *PagesController) About(ctx *gin.Context) {
	render(ctx, http.StatusOK, "about.html", nil)
}

func (p *PagesController) Rules(ctx *gin.Context) {
	render(ctx, http.StatusOK, "rules.html", nil)
}

// NotFound renders the 404 page for unmatched routes.
func (p *PagesController) NotFound(ctx *gin.Context) {
	notFound(ctx)
}
