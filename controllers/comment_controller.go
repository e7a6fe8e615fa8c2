package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// CommentController attaches comments to posts and lets their authors edit or delete them.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// Create adds a comment by the session user to the post in the URL.
// Only the text comes from the form; post and author keys in the body are ignored.
func (c *CommentController) Create(ctx *gin.Context) {
	post, ok := c.visibleParent(ctx)
	if !ok {
		return
	}

	var form commentForm
	if err := ctx.ShouldBind(&form); err != nil {
		c.renderDetailWithErrors(ctx, post, form, bindErrors(err))
		return
	}

	comment := models.Comment{Text: form.Text, PostID: post.ID, AuthorID: getUserID(ctx)}
	if err := c.db.Create(&comment).Error; err != nil {
		serverError(ctx, "create comment", err, "post_id", post.ID)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// EditForm shows the comment form to the comment's author.
func (c *CommentController) EditForm(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "comment.html", gin.H{"Comment": comment, "Form": commentForm{Text: comment.Text}, "Errors": formErrors{}})
}

// Edit saves the new comment text.
func (c *CommentController) Edit(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}

	var form commentForm
	if err := ctx.ShouldBind(&form); err != nil {
		render(ctx, http.StatusBadRequest, "comment.html", gin.H{"Comment": comment, "Form": form, "Errors": bindErrors(err)})
		return
	}

	if err := c.db.Model(&models.Comment{ID: comment.ID}).Update("text", form.Text).Error; err != nil {
		serverError(ctx, "update comment", err, "comment_id", comment.ID)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(comment.PostID))
}

// DeleteConfirm asks the comment's author to confirm.
func (c *CommentController) DeleteConfirm(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "comment_delete.html", gin.H{"Comment": comment})
}

// Delete removes the comment.
func (c *CommentController) Delete(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	if err := c.db.Delete(&models.Comment{}, comment.ID).Error; err != nil {
		serverError(ctx, "delete comment", err, "comment_id", comment.ID)
		return
	}
	ctx.Redirect(http.StatusFound, postURL(comment.PostID))
}

// visibleParent resolves the post in the URL through the visibility filter.
func (c *CommentController) visibleParent(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		notFound(ctx)
		return nil, false
	}
	post, err := findVisiblePost(ctx, c.db, id)
	if err != nil {
		lookupFailed(ctx, "load post", err, "post_id", id)
		return nil, false
	}
	return post, true
}

// ownedComment loads the comment of the post in the URL and passes it through the ownership gate.
func (c *CommentController) ownedComment(ctx *gin.Context) (*models.Comment, bool) {
	post, ok := c.visibleParent(ctx)
	if !ok {
		return nil, false
	}
	cid, ok := parseID(ctx, "cid")
	if !ok {
		notFound(ctx)
		return nil, false
	}

	var comment models.Comment
	err := c.db.Preload("Author").Where("id = ? AND post_id = ?", cid, post.ID).Take(&comment).Error
	if err != nil {
		lookupFailed(ctx, "load comment", err, "comment_id", cid, "post_id", post.ID)
		return nil, false
	}
	if !authorizeOwner(ctx, &comment, postURL(post.ID)) {
		return nil, false
	}
	return &comment, true
}

// renderDetailWithErrors re-renders the post page with the rejected comment form.
func (c *CommentController) renderDetailWithErrors(ctx *gin.Context, post *models.Post, form commentForm, errs formErrors) {
	var comments []models.Comment
	if err := c.db.Where("post_id = ?", post.ID).Preload("Author").Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		serverError(ctx, "list comments", err, "post_id", post.ID)
		return
	}
	render(ctx, http.StatusBadRequest, "detail.html", gin.H{
		"Post":        post,
		"Comments":    comments,
		"CanEdit":     models.CanModify(post, getUserID(ctx)),
		"CommentText": form.Text,
		"Errors":      errs,
	})
}
