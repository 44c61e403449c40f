// Package user provides store operations for users and their sign-in accounts.
package user

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUserNotFound is returned when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailEmpty is returned when a user is created without email.
	ErrEmailEmpty = errors.New("user email cannot be empty")
	// ErrUserAlreadyExists is returned when the email is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("account not found")
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get retrieves a user by id.
func Get(db *gorm.DB, id string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return &u, nil
}

// GetByEmail retrieves a user by email, case insensitive.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &u, nil
}

// CreateWithAccount stores a new user and its first account in one transaction.
// account.UserID is set to the new user id, an empty account.AccountID defaults to it.
func CreateWithAccount(db *gorm.DB, u *models.User, account *models.Account) error {
	if db == nil {
		return ErrDBNil
	}

	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return ErrEmailEmpty
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("check user: %w", err)
		}

		if count > 0 {
			return ErrUserAlreadyExists
		}

		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		account.UserID = u.ID
		if account.AccountID == "" {
			account.AccountID = u.ID
		}

		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		return nil
	})
}

// MarkEmailVerified sets the verified flag of a user.
func MarkEmailVerified(db *gorm.DB, id string) error {
	if db == nil {
		return ErrDBNil
	}

	res := db.Model(&models.User{}).Where("id = ?", id).Update("email_verified", true)
	if res.Error != nil {
		return fmt.Errorf("verify email: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateProfile sets name and image, empty values are left untouched.
func UpdateProfile(db *gorm.DB, id, name, image string) error {
	if db == nil {
		return ErrDBNil
	}

	updates := map[string]any{}
	if name != "" {
		updates["name"] = name
	}

	if image != "" {
		updates["image"] = image
	}

	if len(updates) == 0 {
		return nil
	}

	return db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}

// GetAccount retrieves the account of a provider by the provider side id.
func GetAccount(db *gorm.DB, providerID, accountID string) (*models.Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var a models.Account
	if err := db.Where("provider_id = ? AND account_id = ?", providerID, accountID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, fmt.Errorf("get account: %w", err)
	}

	return &a, nil
}

// GetCredentialAccount retrieves the email and password account of a user.
func GetCredentialAccount(db *gorm.DB, userID string) (*models.Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var a models.Account
	if err := db.Where("user_id = ? AND provider_id = ?", userID, models.ProviderCredential).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, fmt.Errorf("get credential account: %w", err)
	}

	return &a, nil
}

// ListAccounts returns all accounts of a user.
func ListAccounts(db *gorm.DB, userID string) ([]models.Account, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var accounts []models.Account
	if err := db.Where("user_id = ?", userID).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

// SaveAccount creates the account or updates its tokens if it exists.
func SaveAccount(db *gorm.DB, account *models.Account) error {
	if db == nil {
		return ErrDBNil
	}

	if account.ID == "" {
		return db.Create(account).Error
	}

	return db.Save(account).Error
}

// SetPassword stores a new hash on the credential account of a user, creating the account if missing.
func SetPassword(db *gorm.DB, userID, hash string) error {
	if db == nil {
		return ErrDBNil
	}

	account, err := GetCredentialAccount(db, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return db.Create(&models.Account{
			UserID:     userID,
			ProviderID: models.ProviderCredential,
			AccountID:  userID,
			Password:   hash,
		}).Error
	}

	if err != nil {
		return err
	}

	return db.Model(account).Update("password", hash).Error
}
