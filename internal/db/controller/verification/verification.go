// Package verification provides store operations for single use tokens.
package verification

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned for unknown or already used identifiers.
	ErrNotFound = errors.New("verification not found")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("verification expired")
)

// Create stores a token, replacing an existing one with the same identifier.
func Create(db *gorm.DB, identifier, value string, expiresAt time.Time) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identifier = ?", identifier).Delete(&models.Verification{}).Error; err != nil {
			return fmt.Errorf("replace verification: %w", err)
		}

		v := &models.Verification{Identifier: identifier, Value: value, ExpiresAt: expiresAt}
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("create verification: %w", err)
		}

		return nil
	})
}

// Peek returns the value of a valid token without using it up.
func Peek(db *gorm.DB, identifier string, now time.Time) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var v models.Verification
	if err := db.Where("identifier = ?", identifier).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("get verification: %w", err)
	}

	if !now.Before(v.ExpiresAt) {
		return "", ErrExpired
	}

	return v.Value, nil
}

// Consume returns the value of a valid token and deletes it.
// Expired tokens are deleted too.
func Consume(db *gorm.DB, identifier string, now time.Time) (string, error) {
	if db == nil {
		return "", ErrDBNil
	}

	var v models.Verification

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identifier = ?", identifier).First(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("get verification: %w", err)
		}

		res := tx.Where("id = ?", v.ID).Delete(&models.Verification{})
		if res.Error != nil {
			return fmt.Errorf("delete verification: %w", res.Error)
		}

		// a concurrent consumer won
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	if !now.Before(v.ExpiresAt) {
		return "", ErrExpired
	}

	return v.Value, nil
}
