package models

import (
	"time"

	"gorm.io/gorm"
)

// InvitationStatus tracks the lifecycle of an invitation.
type InvitationStatus string

// Invitation states, only pending invitations can be accepted, rejected or canceled.
const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
	InvitationCanceled InvitationStatus = "canceled"
)

// Invitation asks an email address to join an organization with a role.
type Invitation struct {
	ID             string           `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string           `gorm:"size:36;not null;index" json:"organizationId"`
	Organization   Organization     `gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE" json:"organization"`
	Email          string           `gorm:"size:255;not null;index" json:"email"`
	Role           MemberRole       `gorm:"type:varchar(20);not null" json:"role"`
	Status         InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	InviterID      string           `gorm:"size:36;not null" json:"inviterId"`
	Inviter        User             `gorm:"foreignKey:InviterID;references:ID;constraint:OnDelete:CASCADE" json:"inviter"`
	ExpiresAt      time.Time        `json:"expiresAt"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// TableName specifies the table name for the Invitation model.
func (Invitation) TableName() string {
	return "invitations"
}

// BeforeCreate assigns a uuid when none is set.
func (i *Invitation) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)

	return nil
}

// Open reports whether the invitation is pending and not expired at now.
func (i *Invitation) Open(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}
