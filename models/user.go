package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultStatus is assigned to every freshly signed up user.
const DefaultStatus = "I am new!"

// User represents an account. Passwords are stored as bcrypt hashes only and
// are never serialized to clients.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"_id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Status       string    `gorm:"size:255" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Posts        []Post    `gorm:"foreignKey:CreatorID" json:"-"`
}

// BeforeCreate hook fills the default status and timestamps.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Status == "" {
		u.Status = DefaultStatus
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
