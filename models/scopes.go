package models

import (
	"time"

	"gorm.io/gorm"
)

// VisiblePosts restricts a post query to what viewerID may read at now: published posts whose
// publication time has passed and whose category is published, plus every post authored by the viewer.
// A post without a category is never public. viewerID 0 is the anonymous viewer.
//
// Every read path (feeds, detail, comment parents, stats) goes through this scope.
func VisiblePosts(viewerID uint, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("LEFT JOIN categories ON categories.id = posts.category_id").
			Where(
				db.Session(&gorm.Session{NewDB: true}).
					Where("posts.is_published = ? AND posts.pub_date <= ? AND categories.is_published = ?", true, now.UTC(), true).
					Or("posts.author_id = ?", viewerID),
			)
	}
}

// WithCommentCount selects post columns plus the number of comments each post has at read time.
func WithCommentCount(db *gorm.DB) *gorm.DB {
	return db.Select("posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}

// NewestFirst orders posts by publication time, newest first; id breaks ties.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.pub_date DESC").Order("posts.id DESC")
}

// WithRelations preloads the rows a post listing renders.
func WithRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Category").Preload("Location")
}

// PublishedCategory selects the published category with the given slug.
func PublishedCategory(slug string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("slug = ? AND is_published = ?", slug, true)
	}
}
