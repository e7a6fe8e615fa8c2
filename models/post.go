package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a blog entry. PubDate schedules when it becomes eligible for public visibility.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Image       string    `gorm:"size:512" json:"image"` // public URL under /media/
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"author"`
	Category    *Category `json:"category,omitempty"`
	Location    *Location `json:"location,omitempty"`
	Comments    []Comment `json:"-"`
	// CommentCount is filled by the WithCommentCount scope; it is never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// OwnerID returns the author of the post.
func (p *Post) OwnerID() uint { return p.AuthorID }

// BeforeSave keeps PubDate in UTC at second precision so that comparisons agree across dialects.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	p.PubDate = p.PubDate.UTC().Truncate(time.Second)
	return nil
}
