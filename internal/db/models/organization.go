package models

import (
	"time"

	"gorm.io/gorm"
)

// MemberRole is the role a user holds inside one organization.
type MemberRole string

const (
	// RoleOwner has every permission including deleting the organization.
	RoleOwner MemberRole = "owner"
	// RoleAdmin manages members and invitations.
	RoleAdmin MemberRole = "admin"
	// RoleMember has no management permissions.
	RoleMember MemberRole = "member"
)

// Valid reports whether r is one of the known roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// Organization is a tenant users are members of.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Logo      string    `gorm:"size:1024" json:"logo"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for the Organization model.
func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate assigns a uuid when none is set.
func (o *Organization) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)

	return nil
}

// Member is the membership of a user in an organization.
type Member struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string       `gorm:"size:36;not null;uniqueIndex:idx_member_org_user" json:"organizationId"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	UserID         string       `gorm:"size:36;not null;uniqueIndex:idx_member_org_user;index" json:"userId"`
	User           User         `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"user"`
	Role           MemberRole   `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// TableName specifies the table name for the Member model.
func (Member) TableName() string {
	return "members"
}

// BeforeCreate assigns a uuid when none is set.
func (m *Member) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)

	return nil
}
