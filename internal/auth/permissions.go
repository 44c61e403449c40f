package auth

import (
	"slices"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

// Resource is something inside an organization a permission applies to.
type Resource string

// Action is what a role may do with a resource.
type Action string

// Resources and actions known to the access control.
const (
	ResourceOrganization Resource = "organization"
	ResourceMember       Resource = "member"
	ResourceInvitation   Resource = "invitation"

	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionCancel Action = "cancel"
)

// Statements lists the allowed actions per resource.
type Statements map[Resource][]Action

// AccessControl maps organization roles to their statements.
type AccessControl map[models.MemberRole]Statements

// DefaultAccessControl returns the owner, admin and member policy.
// Owners may do everything, admins everything except deleting the organization, members nothing.
func DefaultAccessControl() AccessControl {
	return AccessControl{
		models.RoleOwner: {
			ResourceOrganization: {ActionUpdate, ActionDelete},
			ResourceMember:       {ActionCreate, ActionUpdate, ActionDelete},
			ResourceInvitation:   {ActionCreate, ActionCancel},
		},
		models.RoleAdmin: {
			ResourceOrganization: {ActionUpdate},
			ResourceMember:       {ActionCreate, ActionUpdate, ActionDelete},
			ResourceInvitation:   {ActionCreate, ActionCancel},
		},
		models.RoleMember: {},
	}
}

// Can reports whether role may perform action on resource.
func (ac AccessControl) Can(role models.MemberRole, resource Resource, action Action) bool {
	return slices.Contains(ac[role][resource], action)
}
