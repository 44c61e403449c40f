package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/controller/invitation"
	"github.com/tenantgate/tenantgate/internal/db/controller/organization"
	sessionctrl "github.com/tenantgate/tenantgate/internal/db/controller/session"
	"github.com/tenantgate/tenantgate/internal/db/controller/user"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

// CreateOrganizationInput is the payload of an organization create.
type CreateOrganizationInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Slug     string `json:"slug" validate:"omitempty,max=255"`
	Logo     string `json:"logo" validate:"omitempty,url"`
	Metadata string `json:"metadata"`
}

// UpdateOrganizationInput changes name or logo, empty values are kept.
type UpdateOrganizationInput struct {
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name" validate:"omitempty,max=255"`
	Logo           string `json:"logo" validate:"omitempty,url"`
}

// FullOrganization is an organization with its members and invitations.
type FullOrganization struct {
	models.Organization
	Members     []models.Member     `json:"members"`
	Invitations []models.Invitation `json:"invitations"`
}

// organizationID falls back to the active organization of the session.
func organizationID(cur *CurrentSession, id string) (string, error) {
	if id != "" {
		return id, nil
	}

	if active := cur.ActiveOrganizationID(); active != "" {
		return active, nil
	}

	return "", ErrNoActiveOrganization
}

// authorize loads the membership of the current user and checks the permission.
func (e *Engine) authorize(ctx context.Context, cur *CurrentSession, orgID string, res Resource, act Action) (*models.Organization, *models.Member, error) {
	org, m, err := e.membership(ctx, cur.User.ID, orgID)
	if err != nil {
		return nil, nil, err
	}

	if !e.opts.Organization.AccessControl.Can(m.Role, res, act) {
		return nil, nil, ErrForbidden
	}

	return org, m, nil
}

// CreateOrganization creates an organization owned by the current user and makes it
// the active organization of the current session. The after create hook runs best effort.
func (e *Engine) CreateOrganization(ctx context.Context, cur *CurrentSession, in CreateOrganizationInput) (*models.Organization, error) {
	db := e.db.WithContext(ctx)

	org := &models.Organization{Name: in.Name, Slug: in.Slug, Logo: in.Logo, Metadata: in.Metadata}

	owner, err := organization.Create(db, org, cur.User.ID)

	switch {
	case errors.Is(err, organization.ErrSlugTaken):
		return nil, ErrSlugTaken
	case errors.Is(err, organization.ErrNameEmpty):
		return nil, fmt.Errorf("%w: name", ErrInvalidInput)
	case err != nil:
		return nil, err
	}

	if err = sessionctrl.SetActiveOrganization(db, cur.Session.Token, &org.ID); err != nil {
		log.Warn().Err(err).Str("organization", org.ID).Msg("failed to activate new organization on session")
	} else {
		cur.Session.ActiveOrganizationID = &org.ID
	}

	e.opts.Hooks.AfterOrganizationCreate.Fire(ctx, "afterOrganizationCreate", OrganizationCreated{
		Organization: *org,
		Member:       *owner,
		User:         cur.User,
	})

	return org, nil
}

// UpdateOrganization changes name or logo, needs organization:update.
func (e *Engine) UpdateOrganization(ctx context.Context, cur *CurrentSession, in UpdateOrganizationInput) (*models.Organization, error) {
	orgID, err := organizationID(cur, in.OrganizationID)
	if err != nil {
		return nil, err
	}

	org, _, err := e.authorize(ctx, cur, orgID, ResourceOrganization, ActionUpdate)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != "" {
		updates["name"] = in.Name
		org.Name = in.Name
	}

	if in.Logo != "" {
		updates["logo"] = in.Logo
		org.Logo = in.Logo
	}

	if len(updates) > 0 {
		if err = e.db.WithContext(ctx).Model(&models.Organization{}).Where("id = ?", org.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update organization: %w", err)
		}
	}

	return org, nil
}

// DeleteOrganization removes an organization, needs organization:delete.
func (e *Engine) DeleteOrganization(ctx context.Context, cur *CurrentSession, orgID string) error {
	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return err
	}

	if _, _, err = e.authorize(ctx, cur, orgID, ResourceOrganization, ActionDelete); err != nil {
		return err
	}

	if err = organization.Delete(e.db.WithContext(ctx), orgID); err != nil {
		return err
	}

	if cur.ActiveOrganizationID() == orgID {
		cur.Session.ActiveOrganizationID = nil
	}

	return nil
}

// ListOrganizations returns the organizations of the current user.
func (e *Engine) ListOrganizations(ctx context.Context, cur *CurrentSession) ([]models.Organization, error) {
	return organization.ListForUser(e.db.WithContext(ctx), cur.User.ID)
}

// GetFullOrganization returns an organization with members and invitations, members only.
func (e *Engine) GetFullOrganization(ctx context.Context, cur *CurrentSession, orgID string) (*FullOrganization, error) {
	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return nil, err
	}

	org, _, err := e.membership(ctx, cur.User.ID, orgID)
	if err != nil {
		return nil, err
	}

	db := e.db.WithContext(ctx)

	members, err := organization.ListMembers(db, org.ID)
	if err != nil {
		return nil, err
	}

	invs, err := invitation.ListForOrganization(db, org.ID)
	if err != nil {
		return nil, err
	}

	return &FullOrganization{Organization: *org, Members: members, Invitations: invs}, nil
}

// ListMembers returns the members of an organization, members only.
func (e *Engine) ListMembers(ctx context.Context, cur *CurrentSession, orgID string) ([]models.Member, error) {
	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return nil, err
	}

	if _, _, err = e.membership(ctx, cur.User.ID, orgID); err != nil {
		return nil, err
	}

	return organization.ListMembers(e.db.WithContext(ctx), orgID)
}

// GetActiveMember returns the membership of the current user in the active organization.
func (e *Engine) GetActiveMember(ctx context.Context, cur *CurrentSession) (*models.Member, error) {
	orgID, err := organizationID(cur, "")
	if err != nil {
		return nil, err
	}

	_, m, err := e.membership(ctx, cur.User.ID, orgID)

	return m, err
}

// RemoveMember removes a member by member id or email. Members may always remove themselves,
// removing others needs member:delete and only owners may remove owners. The last owner stays.
func (e *Engine) RemoveMember(ctx context.Context, cur *CurrentSession, orgID, memberIDOrEmail string) (*models.Member, error) {
	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return nil, err
	}

	_, actor, err := e.membership(ctx, cur.User.ID, orgID)
	if err != nil {
		return nil, err
	}

	db := e.db.WithContext(ctx)

	target, err := e.findMember(ctx, orgID, memberIDOrEmail)
	if err != nil {
		return nil, err
	}

	if target.ID != actor.ID {
		if !e.opts.Organization.AccessControl.Can(actor.Role, ResourceMember, ActionDelete) {
			return nil, ErrForbidden
		}

		if target.Role == models.RoleOwner && actor.Role != models.RoleOwner {
			return nil, ErrForbidden
		}
	}

	if target.Role == models.RoleOwner {
		if err = e.keepOneOwner(ctx, orgID); err != nil {
			return nil, err
		}
	}

	if err = organization.RemoveMember(db, orgID, target.ID); err != nil {
		return nil, err
	}

	if err = sessionctrl.ClearOrganization(db, target.UserID, orgID); err != nil {
		log.Warn().Err(err).Str("user", target.UserID).Msg("failed to clear organization from sessions")
	}

	return target, nil
}

// UpdateMemberRole changes the role of a member, needs member:update.
// Only owners may grant or take the owner role and the last owner keeps it.
func (e *Engine) UpdateMemberRole(ctx context.Context, cur *CurrentSession, orgID, memberID string, role models.MemberRole) (*models.Member, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return nil, err
	}

	_, actor, err := e.authorize(ctx, cur, orgID, ResourceMember, ActionUpdate)
	if err != nil {
		return nil, err
	}

	target, err := e.findMember(ctx, orgID, memberID)
	if err != nil {
		return nil, err
	}

	if (role == models.RoleOwner || target.Role == models.RoleOwner) && actor.Role != models.RoleOwner {
		return nil, ErrForbidden
	}

	if target.Role == models.RoleOwner && role != models.RoleOwner {
		if err = e.keepOneOwner(ctx, orgID); err != nil {
			return nil, err
		}
	}

	return organization.UpdateMemberRole(e.db.WithContext(ctx), orgID, target.ID, role)
}

func (e *Engine) keepOneOwner(ctx context.Context, orgID string) error {
	owners, err := organization.CountOwners(e.db.WithContext(ctx), orgID)
	if err != nil {
		return err
	}

	if owners <= 1 {
		return ErrLastOwner
	}

	return nil
}

func (e *Engine) findMember(ctx context.Context, orgID, memberIDOrEmail string) (*models.Member, error) {
	db := e.db.WithContext(ctx)

	m, err := organization.GetMemberByID(db, orgID, memberIDOrEmail)
	if err == nil {
		return m, nil
	}

	if !errors.Is(err, organization.ErrMemberNotFound) {
		return nil, err
	}

	u, err := user.GetByEmail(db, memberIDOrEmail)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrMemberNotFound
	}

	if err != nil {
		return nil, err
	}

	m, err = organization.GetMember(db, orgID, u.ID)
	if errors.Is(err, organization.ErrMemberNotFound) {
		return nil, ErrMemberNotFound
	}

	return m, err
}

// checkMembershipLimit fails when the organization already has the configured number of members.
func (e *Engine) checkMembershipLimit(ctx context.Context, orgID string) error {
	count, err := organization.CountMembers(e.db.WithContext(ctx), orgID)
	if err != nil {
		return err
	}

	if count >= int64(e.opts.Organization.MembershipLimit) {
		return ErrMembershipLimitReached
	}

	return nil
}
