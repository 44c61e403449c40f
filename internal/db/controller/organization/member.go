package organization

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

// AddMember makes a user a member with the given role.
func AddMember(db *gorm.DB, organizationID, userID string, role models.MemberRole) (*models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	_, err := GetMember(db, organizationID, userID)

	switch {
	case err == nil:
		return nil, ErrAlreadyMember
	case !errors.Is(err, ErrMemberNotFound):
		return nil, err
	}

	m := &models.Member{OrganizationID: organizationID, UserID: userID, Role: role}
	if err = db.Create(m).Error; err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	return m, nil
}

// GetMember retrieves the membership of a user in an organization.
func GetMember(db *gorm.DB, organizationID, userID string) (*models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Member
	if err := db.Where("organization_id = ? AND user_id = ?", organizationID, userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}

		return nil, fmt.Errorf("get member: %w", err)
	}

	return &m, nil
}

// GetMemberByID retrieves a membership by its id inside an organization.
func GetMemberByID(db *gorm.DB, organizationID, memberID string) (*models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var m models.Member
	if err := db.Where("organization_id = ? AND id = ?", organizationID, memberID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}

		return nil, fmt.Errorf("get member: %w", err)
	}

	return &m, nil
}

// ListMembers returns the members of an organization with their users, oldest first.
func ListMembers(db *gorm.DB, organizationID string) ([]models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var members []models.Member
	if err := db.Preload("User").Where("organization_id = ?", organizationID).Order("created_at").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}

// CountMembers returns the number of members of an organization.
func CountMembers(db *gorm.DB, organizationID string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64
	if err := db.Model(&models.Member{}).Where("organization_id = ?", organizationID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}

	return count, nil
}

// CountOwners returns the number of owners of an organization.
func CountOwners(db *gorm.DB, organizationID string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64

	err := db.Model(&models.Member{}).
		Where("organization_id = ? AND role = ?", organizationID, models.RoleOwner).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}

	return count, nil
}

// RemoveMember deletes a membership.
func RemoveMember(db *gorm.DB, organizationID, memberID string) error {
	if db == nil {
		return ErrDBNil
	}

	res := db.Where("organization_id = ? AND id = ?", organizationID, memberID).Delete(&models.Member{})
	if res.Error != nil {
		return fmt.Errorf("remove member: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// UpdateMemberRole changes the role of a membership.
func UpdateMemberRole(db *gorm.DB, organizationID, memberID string, role models.MemberRole) (*models.Member, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	m, err := GetMemberByID(db, organizationID, memberID)
	if err != nil {
		return nil, err
	}

	if err = db.Model(m).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}

	m.Role = role

	return m, nil
}
