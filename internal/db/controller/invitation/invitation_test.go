package invitation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/db/controller/organization"
	"github.com/tenantgate/tenantgate/internal/db/dbtest"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

func TestInvitationLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	inviter := dbtest.User(t, db, "owner@example.com")

	org := &models.Organization{Name: "Acme"}
	_, err := organization.Create(db, org, inviter.ID)
	require.NoError(t, err)

	now := time.Now()
	inv := &models.Invitation{
		OrganizationID: org.ID,
		Email:          "New@Example.com",
		Role:           models.RoleMember,
		InviterID:      inviter.ID,
		ExpiresAt:      now.Add(48 * time.Hour),
	}
	require.NoError(t, Create(db, inv))
	assert.Equal(t, "new@example.com", inv.Email)
	assert.Equal(t, models.InvitationPending, inv.Status)

	got, err := Get(db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Organization.Name)
	assert.Equal(t, "owner@example.com", got.Inviter.Email)

	pending, err := GetPending(db, org.ID, "NEW@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, pending.ID)

	_, err = GetPending(db, org.ID, "new@example.com", now.Add(49*time.Hour))
	require.ErrorIs(t, err, ErrInvitationNotFound)

	open, err := ListOpenForEmail(db, "new@example.com", now)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Acme", open[0].Organization.Name)

	require.NoError(t, SetStatus(db, inv.ID, models.InvitationAccepted))

	_, err = GetPending(db, org.ID, "new@example.com", now)
	require.ErrorIs(t, err, ErrInvitationNotFound)

	all, err := ListForOrganization(db, org.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.InvitationAccepted, all[0].Status)

	require.NoError(t, Delete(db, inv.ID))

	_, err = Get(db, inv.ID)
	require.ErrorIs(t, err, ErrInvitationNotFound)
	require.ErrorIs(t, SetStatus(db, inv.ID, models.InvitationCanceled), ErrInvitationNotFound)
}

func TestCreateErrors(t *testing.T) {
	require.ErrorIs(t, Create(nil, &models.Invitation{}), ErrDBNil)
	require.ErrorIs(t, Create(dbtest.Open(t), &models.Invitation{Email: ""}), ErrEmailEmpty)
}
