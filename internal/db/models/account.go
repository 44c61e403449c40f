package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProviderCredential is the provider id of email and password accounts.
const ProviderCredential = "credential"

// Account links a user to one way of signing in.
// Email and password users have a credential account, social users one account per provider.
type Account struct {
	// ID is the unique identifier for the account.
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// UserID references the owning user.
	UserID string `gorm:"size:36;not null;index" json:"userId"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	// ProviderID is credential, google or github.
	ProviderID string `gorm:"size:32;not null;uniqueIndex:idx_account_provider" json:"providerId"`
	// AccountID is the id at the provider, the user id for credential accounts.
	AccountID string `gorm:"size:255;not null;uniqueIndex:idx_account_provider" json:"accountId"`
	// Password is the Argon2id hash, only set for credential accounts.
	Password string `gorm:"size:255" json:"-"`

	AccessToken          string     `gorm:"type:text" json:"-"`
	RefreshToken         string     `gorm:"type:text" json:"-"`
	IDToken              string     `gorm:"type:text" json:"-"`
	AccessTokenExpiresAt *time.Time `json:"-"`
	Scope                string     `gorm:"size:1024" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns a uuid when none is set.
func (a *Account) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)

	return nil
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hashedPassword, nil
}

// VerifyPassword verifies a plaintext password against the stored hash.
// Returns false for accounts without a password.
func (a *Account) VerifyPassword(password string) bool {
	if a.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, a.Password)
	if err != nil {
		log.Error().Err(err).Str("account", a.ID).Msg("failed to verify password")

		return false
	}

	return match
}
