package controllers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
)

var errInvalidPage = errors.New("invalid page")

// Page describes one page of a listing.
type Page struct {
	Number   int
	NumPages int
	Total    int64
	Size     int
}

// HasPrevious reports whether a page precedes this one.
func (p Page) HasPrevious() bool { return p.Number > 1 }

// HasNext reports whether a page follows this one.
func (p Page) HasNext() bool { return p.Number < p.NumPages }

// Previous is the number of the preceding page.
func (p Page) Previous() int { return p.Number - 1 }

// Next is the number of the following page.
func (p Page) Next() int { return p.Number + 1 }

// HasOtherPages reports whether the listing spans more than one page.
func (p Page) HasOtherPages() bool { return p.NumPages > 1 }

func (p Page) offset() int { return (p.Number - 1) * p.Size }

// newPage validates the requested page against total. A missing page means the first one;
// the first page of an empty listing exists, anything else out of range does not.
func newPage(raw string, total int64, size int) (Page, error) {
	if size <= 0 {
		size = 10
	}
	number, last := 1, false
	if raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err == nil:
			number = n
		case raw == "last":
			last = true
		default:
			return Page{}, errInvalidPage
		}
	}

	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages == 0 {
		numPages = 1
	}
	if last {
		number = numPages
	}
	if number < 1 || number > numPages {
		return Page{}, errInvalidPage
	}
	return Page{Number: number, NumPages: numPages, Total: total, Size: size}, nil
}

// listVisiblePosts paginates the posts the viewer may read, narrowed by filters, newest first
// with comment counts and relations loaded.
func listVisiblePosts(ctx *gin.Context, db *gorm.DB, filters ...func(*gorm.DB) *gorm.DB) ([]models.Post, Page, error) {
	viewerID := getUserID(ctx)
	now := nowUTC()
	base := func() *gorm.DB {
		return db.Model(&models.Post{}).Scopes(models.VisiblePosts(viewerID, now)).Scopes(filters...)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, Page{}, err
	}
	page, err := newPage(ctx.Query("page"), total, config.Get().PageSize)
	if err != nil {
		return nil, Page{}, err
	}

	var posts []models.Post
	err = base().
		Scopes(models.WithCommentCount, models.NewestFirst, models.WithRelations).
		Offset(page.offset()).
		Limit(page.Size).
		Find(&posts).Error
	return posts, page, err
}

// respondListError maps listing failures to 404 or 500.
func respondListError(ctx *gin.Context, op string, err error) {
	if errors.Is(err, errInvalidPage) {
		notFound(ctx)
		return
	}
	serverError(ctx, op, err)
}
