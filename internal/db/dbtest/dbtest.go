// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

// Open creates an in-memory SQLite database with every model migrated.
// The pool is limited to one connection, every new connection would see an empty database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)

	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

// User stores a verified user with the given email.
func User(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	u := &models.User{Name: email, Email: email, EmailVerified: true}
	require.NoError(t, db.Create(u).Error)

	return u
}
