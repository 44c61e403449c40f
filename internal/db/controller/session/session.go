// Package session provides store operations for sign-in sessions.
package session

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

const tokenQueryPattern = "token = ?"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrSessionNotFound is returned when no session matches the token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenEmpty is returned when a session is stored without token.
	ErrTokenEmpty = errors.New("session token cannot be empty")
)

// Create stores a new session.
func Create(db *gorm.DB, s *models.Session) error {
	if db == nil {
		return ErrDBNil
	}

	if s.Token == "" {
		return ErrTokenEmpty
	}

	if err := db.Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by its cookie token.
func GetByToken(db *gorm.DB, token string) (*models.Session, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if token == "" {
		return nil, ErrSessionNotFound
	}

	var s models.Session
	if err := db.Where(tokenQueryPattern, token).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

// DeleteByToken removes a session, unknown tokens are ignored.
func DeleteByToken(db *gorm.DB, token string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(tokenQueryPattern, token).Delete(&models.Session{}).Error
}

// DeleteForUser removes every session of a user.
func DeleteForUser(db *gorm.DB, userID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where("user_id = ?", userID).Delete(&models.Session{}).Error
}

// DeleteExpired removes sessions expired before now and returns how many were removed.
func DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	res := db.Where("expires_at <= ?", now).Delete(&models.Session{})

	return res.RowsAffected, res.Error
}

// SetActiveOrganization switches the active organization of one session, nil clears it.
func SetActiveOrganization(db *gorm.DB, token string, organizationID *string) error {
	if db == nil {
		return ErrDBNil
	}

	res := db.Model(&models.Session{}).Where(tokenQueryPattern, token).Update("active_organization_id", organizationID)
	if res.Error != nil {
		return fmt.Errorf("set active organization: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// SetActiveOrganizationForUser sets the active organization on every session of a user.
// It returns the number of updated sessions.
func SetActiveOrganizationForUser(db *gorm.DB, userID, organizationID string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	res := db.Model(&models.Session{}).Where("user_id = ?", userID).Update("active_organization_id", organizationID)
	if res.Error != nil {
		return 0, fmt.Errorf("set active organization for user: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// ClearOrganization removes an organization from the sessions of a user that have it active.
func ClearOrganization(db *gorm.DB, userID, organizationID string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Model(&models.Session{}).
		Where("user_id = ? AND active_organization_id = ?", userID, organizationID).
		Update("active_organization_id", nil).Error
}

// Latest returns the most recently created session of a user.
func Latest(db *gorm.DB, userID string) (*models.Session, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.Session
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("latest session: %w", err)
	}

	return &s, nil
}

// ListForUser returns the sessions of a user, newest first.
func ListForUser(db *gorm.DB, userID string) ([]models.Session, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var sessions []models.Session
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}
