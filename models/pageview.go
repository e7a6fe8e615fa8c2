package models

import (
	"strconv"
	"time"
)

// PageView stores aggregated page view counts per UTC day and path.
type PageView struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// Day is the UTC calendar day, formatted 2006-01-02, so every dialect compares it as text.
	Day       string    `gorm:"uniqueIndex:idx_pv_day_path;size:10;not null" json:"day"`
	Path      string    `gorm:"uniqueIndex:idx_pv_day_path;index;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Today returns the current UTC day in PageView.Day format.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// PostPath is the detail page path whose views count towards a post.
func PostPath(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
