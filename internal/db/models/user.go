package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a person that can sign in with one or more accounts.
type User struct {
	// ID is the unique identifier for the user.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Name is the display name.
	Name string `gorm:"size:255;not null" json:"name"`
	// Email is the unique, lower-cased email address.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// EmailVerified is set once the user clicked a verification link or signed in with a verified social email.
	EmailVerified bool `gorm:"not null;default:false" json:"emailVerified"`
	// Image is an optional avatar url.
	Image string `gorm:"size:1024" json:"image"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a uuid when none is set.
func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)

	return nil
}
