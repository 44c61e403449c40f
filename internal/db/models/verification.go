package models

import (
	"time"

	"gorm.io/gorm"
)

// Verification is a single use token, for example an email verification or password reset.
type Verification struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Identifier is the lookup key, e.g. "reset-password:<token>".
	Identifier string `gorm:"uniqueIndex;size:255;not null" json:"identifier"`
	// Value is what the token resolves to, usually a user id.
	Value     string    `gorm:"size:255;not null" json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for the Verification model.
func (Verification) TableName() string {
	return "verifications"
}

// BeforeCreate assigns a uuid when none is set.
func (v *Verification) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)

	return nil
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Account{},
		&Organization{},
		&Member{},
		&Session{},
		&Invitation{},
		&Verification{},
	}
}
