package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/models"
)

// authorizeOwner is the single gate in front of every mutation of a post, comment or profile.
// A viewer who does not own target is redirected to readURL and nothing is changed.
func authorizeOwner(ctx *gin.Context, target models.Owned, readURL string) bool {
	if models.CanModify(target, getUserID(ctx)) {
		return true
	}
	ctx.Redirect(http.StatusFound, readURL)
	ctx.Abort()
	return false
}
