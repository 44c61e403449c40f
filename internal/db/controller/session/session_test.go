package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/db/dbtest"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

func newSession(t *testing.T, db *gorm.DB, userID, token string, createdAt time.Time) *models.Session {
	t.Helper()

	s := &models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: createdAt.Add(time.Hour),
		CreatedAt: createdAt,
	}
	require.NoError(t, Create(db, s))

	return s
}

func TestCreateAndGet(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "ada@example.com")

	require.ErrorIs(t, Create(db, &models.Session{UserID: u.ID}), ErrTokenEmpty)
	require.ErrorIs(t, Create(nil, &models.Session{}), ErrDBNil)

	s := newSession(t, db, u.ID, "tok-1", time.Now())

	got, err := GetByToken(db, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Nil(t, got.ActiveOrganizationID)

	_, err = GetByToken(db, "")
	require.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, DeleteByToken(db, "tok-1"))

	_, err = GetByToken(db, "tok-1")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSetActiveOrganization(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "ada@example.com")
	newSession(t, db, u.ID, "tok-1", time.Now())

	org := "org-1"
	require.NoError(t, SetActiveOrganization(db, "tok-1", &org))

	got, err := GetByToken(db, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got.ActiveOrganizationID)
	assert.Equal(t, "org-1", *got.ActiveOrganizationID)

	require.NoError(t, SetActiveOrganization(db, "tok-1", nil))

	got, err = GetByToken(db, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got.ActiveOrganizationID)

	require.ErrorIs(t, SetActiveOrganization(db, "missing", &org), ErrSessionNotFound)
}

func TestSetActiveOrganizationForUser(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "ada@example.com")
	other := dbtest.User(t, db, "bob@example.com")

	now := time.Now()
	newSession(t, db, u.ID, "tok-1", now.Add(-time.Minute))
	newSession(t, db, u.ID, "tok-2", now)
	newSession(t, db, other.ID, "tok-3", now)

	n, err := SetActiveOrganizationForUser(db, u.ID, "org-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	latest, err := Latest(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", latest.Token)
	require.NotNil(t, latest.ActiveOrganizationID)
	assert.Equal(t, "org-1", *latest.ActiveOrganizationID)

	untouched, err := GetByToken(db, "tok-3")
	require.NoError(t, err)
	assert.Nil(t, untouched.ActiveOrganizationID)

	require.NoError(t, ClearOrganization(db, u.ID, "org-1"))

	sessions, err := ListForUser(db, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	for _, s := range sessions {
		assert.Nil(t, s.ActiveOrganizationID)
	}
}

func TestDeleteExpiredAndForUser(t *testing.T) {
	db := dbtest.Open(t)
	u := dbtest.User(t, db, "ada@example.com")

	now := time.Now()
	newSession(t, db, u.ID, "old", now.Add(-2*time.Hour))
	newSession(t, db, u.ID, "fresh", now)

	n, err := DeleteExpired(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, DeleteForUser(db, u.ID))

	_, err = Latest(db, u.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
