package models

import (
	"time"

	"gorm.io/gorm"
)

// Session is a signed-in browser or api client.
type Session struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Token is the opaque value stored in the session cookie.
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"token"`
	UserID    string    `gorm:"size:36;not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IPAddress string    `gorm:"size:64" json:"ipAddress"`
	UserAgent string    `gorm:"size:512" json:"userAgent"`
	// ActiveOrganizationID is the organization the session currently works in, nil if none.
	ActiveOrganizationID *string   `gorm:"size:36" json:"activeOrganizationId"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Session model.
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate assigns a uuid when none is set.
func (s *Session) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)

	return nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
