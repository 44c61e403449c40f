package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

func TestDefaultAccessControl(t *testing.T) {
	ac := DefaultAccessControl()

	tests := []struct {
		role     models.MemberRole
		resource Resource
		action   Action
		want     bool
	}{
		{models.RoleOwner, ResourceOrganization, ActionDelete, true},
		{models.RoleOwner, ResourceInvitation, ActionCancel, true},
		{models.RoleAdmin, ResourceOrganization, ActionUpdate, true},
		{models.RoleAdmin, ResourceOrganization, ActionDelete, false},
		{models.RoleAdmin, ResourceMember, ActionDelete, true},
		{models.RoleAdmin, ResourceInvitation, ActionCreate, true},
		{models.RoleMember, ResourceInvitation, ActionCreate, false},
		{models.RoleMember, ResourceOrganization, ActionUpdate, false},
		{"guest", ResourceOrganization, ActionUpdate, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.resource)+":"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, ac.Can(tt.role, tt.resource, tt.action))
		})
	}
}

func TestCustomAccessControl(t *testing.T) {
	ac := AccessControl{
		models.RoleMember: {ResourceInvitation: {ActionCreate}},
	}

	assert.True(t, ac.Can(models.RoleMember, ResourceInvitation, ActionCreate))
	assert.False(t, ac.Can(models.RoleOwner, ResourceInvitation, ActionCreate))
}
