// Package invitation provides store operations for organization invitations.
package invitation

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/controller/user"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrInvitationNotFound is returned when no invitation matches.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrEmailEmpty is returned when an invitation is created without email.
	ErrEmailEmpty = errors.New("invitation email cannot be empty")
)

// Create stores a pending invitation.
func Create(db *gorm.DB, inv *models.Invitation) error {
	if db == nil {
		return ErrDBNil
	}

	inv.Email = user.NormalizeEmail(inv.Email)
	if inv.Email == "" {
		return ErrEmailEmpty
	}

	if inv.Status == "" {
		inv.Status = models.InvitationPending
	}

	if err := db.Create(inv).Error; err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}

	return nil
}

// Get retrieves an invitation with its organization and inviter.
func Get(db *gorm.DB, id string) (*models.Invitation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var inv models.Invitation
	if err := db.Preload("Organization").Preload("Inviter").Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}

		return nil, fmt.Errorf("get invitation: %w", err)
	}

	return &inv, nil
}

// GetPending returns the open invitation of an email for an organization.
func GetPending(db *gorm.DB, organizationID, email string, now time.Time) (*models.Invitation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var inv models.Invitation

	err := db.Where("organization_id = ? AND email = ? AND status = ? AND expires_at > ?",
		organizationID, user.NormalizeEmail(email), models.InvitationPending, now).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}

		return nil, fmt.Errorf("get pending invitation: %w", err)
	}

	return &inv, nil
}

// ListForOrganization returns the invitations of an organization, newest first.
func ListForOrganization(db *gorm.DB, organizationID string) ([]models.Invitation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var invs []models.Invitation
	if err := db.Where("organization_id = ?", organizationID).Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	return invs, nil
}

// ListOpenForEmail returns the open invitations addressed to an email.
func ListOpenForEmail(db *gorm.DB, email string, now time.Time) ([]models.Invitation, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var invs []models.Invitation

	err := db.Preload("Organization").
		Where("email = ? AND status = ? AND expires_at > ?", user.NormalizeEmail(email), models.InvitationPending, now).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list invitations for email: %w", err)
	}

	return invs, nil
}

// SetStatus moves an invitation to a new status.
func SetStatus(db *gorm.DB, id string, status models.InvitationStatus) error {
	if db == nil {
		return ErrDBNil
	}

	res := db.Model(&models.Invitation{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("set invitation status: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrInvitationNotFound
	}

	return nil
}

// Delete removes an invitation.
func Delete(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("id = ?", id).Delete(&models.Invitation{}).Error
}
