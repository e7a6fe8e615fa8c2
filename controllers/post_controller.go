package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// PostController serves the feed, post pages and the post create/edit/delete forms.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// postFormValues is what the post form template shows in its inputs.
type postFormValues struct {
	Title       string
	Text        string
	PubDate     string
	Location    string
	Category    string
	IsPublished bool
	Image       string
}

// Index renders the global feed.
func (p *PostController) Index(ctx *gin.Context) {
	posts, page, err := listVisiblePosts(ctx, p.db)
	if err != nil {
		respondListError(ctx, "list feed", err)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Posts": posts, "Page": page})
}

// Detail renders one post with its comments, oldest first.
func (p *PostController) Detail(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	post, err := findVisiblePost(ctx, p.db, id)
	if err != nil {
		lookupFailed(ctx, "load post", err, "post_id", id)
		return
	}

	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).Preload("Author").Order("created_at ASC").Order("id ASC").Find(&comments).Error; err != nil {
		serverError(ctx, "list comments", err, "post_id", id)
		return
	}

	render(ctx, http.StatusOK, "detail.html", gin.H{
		"Post":        post,
		"Comments":    comments,
		"CanEdit":     models.CanModify(post, getUserID(ctx)),
		"CommentText": "",
		"Errors":      formErrors{},
	})
}

// CreateForm shows an empty post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	p.renderForm(ctx, http.StatusOK, nil, postFormValues{IsPublished: true}, formErrors{})
}

// Create stores a new post authored by the session user.
func (p *PostController) Create(ctx *gin.Context) {
	user, ok := loadSessionUser(ctx, p.db)
	if !ok {
		return
	}

	post := models.Post{AuthorID: user.ID}
	values, errs := p.bindPost(ctx, &post)
	if errs.any() {
		p.renderForm(ctx, http.StatusBadRequest, nil, values, errs)
		return
	}

	if err := p.db.Create(&post).Error; err != nil {
		removeImage(post.Image)
		serverError(ctx, "create post", err, "author_id", user.ID)
		return
	}
	ctx.Redirect(http.StatusFound, profileURL(user.Username))
}

// EditForm shows the post form filled with the post. Only the author gets it.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	values := postFormValues{
		Title:       post.Title,
		Text:        post.Text,
		PubDate:     formatPubDate(post.PubDate),
		IsPublished: post.IsPublished,
		Image:       post.Image,
	}
	if post.CategoryID != nil {
		values.Category = strconv.FormatUint(uint64(*post.CategoryID), 10)
	}
	if post.LocationID != nil {
		values.Location = strconv.FormatUint(uint64(*post.LocationID), 10)
	}
	p.renderForm(ctx, http.StatusOK, post, values, formErrors{})
}

// Edit updates the post and returns to its page.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	oldImage := post.Image
	values, errs := p.bindPost(ctx, post)
	if errs.any() {
		p.renderForm(ctx, http.StatusBadRequest, post, values, errs)
		return
	}

	err := p.db.Model(&models.Post{ID: post.ID}).Updates(map[string]interface{}{
		"title":        post.Title,
		"text":         post.Text,
		"pub_date":     post.PubDate,
		"is_published": post.IsPublished,
		"category_id":  post.CategoryID,
		"location_id":  post.LocationID,
		"image":        post.Image,
	}).Error
	if err != nil {
		if post.Image != oldImage {
			removeImage(post.Image)
		}
		serverError(ctx, "update post", err, "post_id", post.ID)
		return
	}
	if post.Image != oldImage {
		removeImage(oldImage)
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

// DeleteConfirm asks the author to confirm the deletion.
func (p *PostController) DeleteConfirm(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "post_delete.html", gin.H{"Post": post})
}

// Delete removes the post together with its comments and image.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		serverError(ctx, "delete post", err, "post_id", post.ID)
		return
	}
	removeImage(post.Image)
	ctx.Redirect(http.StatusFound, profileURL(post.Author.Username))
}

// ownedPost loads the post named in the URL and passes it through the ownership gate.
func (p *PostController) ownedPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		notFound(ctx)
		return nil, false
	}
	var post models.Post
	if err := p.db.Preload("Author").Where("posts.id = ?", id).Take(&post).Error; err != nil {
		lookupFailed(ctx, "load post", err, "post_id", id)
		return nil, false
	}
	if !authorizeOwner(ctx, &post, postURL(post.ID)) {
		return nil, false
	}
	return &post, true
}

// bindPost validates the submitted form into post. The image is stored only once the rest is valid.
func (p *PostController) bindPost(ctx *gin.Context, post *models.Post) (postFormValues, formErrors) {
	var form postForm
	errs := formErrors{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindErrors(err)
	}
	values := postFormValues{
		Title:       form.Title,
		Text:        form.Text,
		PubDate:     form.PubDate,
		Location:    form.Location,
		Category:    form.Category,
		IsPublished: checked(form.IsPublished),
		Image:       post.Image,
	}

	pubDate, err := parsePubDate(form.PubDate, nowUTC())
	if err != nil {
		errs.add("pub_date", capitalized(err))
	}

	categoryID, err := p.choice(&models.Category{}, form.Category)
	if err != nil {
		errs.add("category", capitalized(err))
	}
	locationID, err := p.choice(&models.Location{}, form.Location)
	if err != nil {
		errs.add("location", capitalized(err))
	}
	if errs.any() {
		return values, errs
	}

	image := post.Image
	if checked(form.ClearImage) {
		image = ""
	}
	header, err := ctx.FormFile("image")
	switch {
	case err == nil:
		url, saveErr := saveImage(header)
		if errors.Is(saveErr, errImageType) || errors.Is(saveErr, errImageSize) {
			errs.add("image", capitalized(saveErr))
			return values, errs
		}
		if saveErr != nil {
			errs.add("image", "The image could not be stored.")
			return values, errs
		}
		image = url
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		errs.add("image", "The submitted file could not be read.")
		return values, errs
	}

	post.Title = strings.TrimSpace(form.Title)
	post.Text = form.Text
	post.PubDate = pubDate.UTC().Truncate(time.Second)
	post.IsPublished = values.IsPublished
	post.CategoryID = categoryID
	post.LocationID = locationID
	post.Image = image
	return values, errs
}

// choice resolves an optional foreign key select value; an unknown id is a form error.
func (p *PostController) choice(model interface{}, raw string) (*uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, errUnknownChoice
	}
	var n int64
	if err := p.db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil || n == 0 {
		return nil, errUnknownChoice
	}
	v := uint(id)
	return &v, nil
}

func (p *PostController) renderForm(ctx *gin.Context, status int, post *models.Post, values postFormValues, errs formErrors) {
	var categories []models.Category
	var locations []models.Location
	if err := p.db.Order("title").Find(&categories).Error; err != nil {
		serverError(ctx, "list categories", err)
		return
	}
	if err := p.db.Order("name").Find(&locations).Error; err != nil {
		serverError(ctx, "list locations", err)
		return
	}
	render(ctx, status, "create.html", gin.H{
		"Post":       post,
		"Form":       values,
		"Errors":     errs,
		"Categories": categories,
		"Locations":  locations,
	})
}

// findVisiblePost loads a post the viewer may read, with comment count and relations.
func findVisiblePost(ctx *gin.Context, db *gorm.DB, id uint) (*models.Post, error) {
	var post models.Post
	err := db.Model(&models.Post{}).
		Scopes(models.VisiblePosts(getUserID(ctx), nowUTC()), models.WithCommentCount, models.WithRelations).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}
