package models

import "time"

// Post is a feed entry created by a user. ImagePath is a relative path below
// the images directory and is served under the public /images/ prefix.
// Exactly one image file belongs to a post at any time.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImagePath string    `gorm:"size:512;not null" json:"imageUrl"`
	CreatorID uint      `gorm:"index;not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Creator   User      `gorm:"foreignKey:CreatorID" json:"creator"`
}
