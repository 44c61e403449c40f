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

// InviteInput is the payload of an invitation.
type InviteInput struct {
	OrganizationID string            `json:"organizationId"`
	Email          string            `json:"email" validate:"required,email"`
	Role           models.MemberRole `json:"role"`
}

// InviteMember creates a pending invitation and hands it to the invitation email hook.
// The invitation is removed again when the hook fails and the hook error is returned.
func (e *Engine) InviteMember(ctx context.Context, cur *CurrentSession, in InviteInput) (inv *models.Invitation, err error) {
	if !validEmail(in.Email) {
		return nil, ErrInvalidEmail
	}

	if in.Role == "" {
		in.Role = models.RoleMember
	}

	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	orgID, err := organizationID(cur, in.OrganizationID)
	if err != nil {
		return nil, err
	}

	org, inviter, err := e.authorize(ctx, cur, orgID, ResourceInvitation, ActionCreate)
	if err != nil {
		return nil, err
	}

	if in.Role == models.RoleOwner && inviter.Role != models.RoleOwner {
		return nil, ErrForbidden
	}

	db := e.db.WithContext(ctx)

	if invitee, lookupErr := user.GetByEmail(db, in.Email); lookupErr == nil {
		if _, memberErr := organization.GetMember(db, org.ID, invitee.ID); memberErr == nil {
			return nil, ErrAlreadyMember
		}
	}

	_, err = invitation.GetPending(db, org.ID, in.Email, e.now())

	switch {
	case err == nil:
		return nil, ErrAlreadyInvited
	case !errors.Is(err, invitation.ErrInvitationNotFound):
		return nil, err
	}

	if err = e.checkMembershipLimit(ctx, org.ID); err != nil {
		return nil, err
	}

	inv = &models.Invitation{
		OrganizationID: org.ID,
		Email:          in.Email,
		Role:           in.Role,
		InviterID:      cur.User.ID,
		ExpiresAt:      e.now().Add(e.opts.Organization.InvitationExpiresIn),
	}

	if err = invitation.Create(db, inv); err != nil {
		return nil, err
	}

	defer func() { countEmail(emailKindInvitation, err) }()

	err = e.opts.Hooks.SendInvitationEmail.Run(ctx, InvitationEmail{
		ID:           inv.ID,
		Email:        inv.Email,
		Role:         inv.Role,
		ExpiresAt:    inv.ExpiresAt,
		Inviter:      cur.User,
		Organization: *org,
	})
	if err != nil {
		if delErr := invitation.Delete(db, inv.ID); delErr != nil {
			log.Warn().Err(delErr).Str("invitation", inv.ID).Msg("failed to remove undelivered invitation")
		}

		return nil, fmt.Errorf("send invitation email: %w", err)
	}

	return inv, nil
}

// openInvitationFor loads an open invitation addressed to the current user.
func (e *Engine) openInvitationFor(ctx context.Context, cur *CurrentSession, id string) (*models.Invitation, error) {
	inv, err := invitation.Get(e.db.WithContext(ctx), id)
	if errors.Is(err, invitation.ErrInvitationNotFound) {
		return nil, ErrInvitationNotFound
	}

	if err != nil {
		return nil, err
	}

	if !inv.Open(e.now()) {
		return nil, ErrInvitationNotFound
	}

	if inv.Email != user.NormalizeEmail(cur.User.Email) {
		return nil, ErrNotInvitationRecipient
	}

	return inv, nil
}

// GetInvitation returns an open invitation for its recipient.
func (e *Engine) GetInvitation(ctx context.Context, cur *CurrentSession, id string) (*models.Invitation, error) {
	return e.openInvitationFor(ctx, cur, id)
}

// AcceptInvitation adds the current user to the organization and activates it on the session.
func (e *Engine) AcceptInvitation(ctx context.Context, cur *CurrentSession, id string) (*models.Member, *models.Invitation, error) {
	inv, err := e.openInvitationFor(ctx, cur, id)
	if err != nil {
		return nil, nil, err
	}

	if e.opts.Organization.RequireEmailVerificationOnInvitation && !cur.User.EmailVerified {
		return nil, nil, ErrEmailNotVerified
	}

	if err = e.checkMembershipLimit(ctx, inv.OrganizationID); err != nil {
		return nil, nil, err
	}

	db := e.db.WithContext(ctx)

	m, err := organization.AddMember(db, inv.OrganizationID, cur.User.ID, inv.Role)
	if errors.Is(err, organization.ErrAlreadyMember) {
		return nil, nil, ErrAlreadyMember
	}

	if err != nil {
		return nil, nil, err
	}

	if err = invitation.SetStatus(db, inv.ID, models.InvitationAccepted); err != nil {
		return nil, nil, err
	}

	inv.Status = models.InvitationAccepted

	if err = sessionctrl.SetActiveOrganization(db, cur.Session.Token, &inv.OrganizationID); err != nil {
		log.Warn().Err(err).Str("organization", inv.OrganizationID).Msg("failed to activate joined organization on session")
	} else {
		cur.Session.ActiveOrganizationID = &inv.OrganizationID
	}

	return m, inv, nil
}

// RejectInvitation declines an open invitation, recipient only.
func (e *Engine) RejectInvitation(ctx context.Context, cur *CurrentSession, id string) (*models.Invitation, error) {
	inv, err := e.openInvitationFor(ctx, cur, id)
	if err != nil {
		return nil, err
	}

	if err = invitation.SetStatus(e.db.WithContext(ctx), inv.ID, models.InvitationRejected); err != nil {
		return nil, err
	}

	inv.Status = models.InvitationRejected

	return inv, nil
}

// CancelInvitation withdraws a pending invitation, needs invitation:cancel.
func (e *Engine) CancelInvitation(ctx context.Context, cur *CurrentSession, id string) (*models.Invitation, error) {
	db := e.db.WithContext(ctx)

	inv, err := invitation.Get(db, id)
	if errors.Is(err, invitation.ErrInvitationNotFound) {
		return nil, ErrInvitationNotFound
	}

	if err != nil {
		return nil, err
	}

	if _, _, err = e.authorize(ctx, cur, inv.OrganizationID, ResourceInvitation, ActionCancel); err != nil {
		return nil, err
	}

	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationNotFound
	}

	if err = invitation.SetStatus(db, inv.ID, models.InvitationCanceled); err != nil {
		return nil, err
	}

	inv.Status = models.InvitationCanceled

	return inv, nil
}

// ListInvitations returns the invitations of an organization, members only.
func (e *Engine) ListInvitations(ctx context.Context, cur *CurrentSession, orgID string) ([]models.Invitation, error) {
	orgID, err := organizationID(cur, orgID)
	if err != nil {
		return nil, err
	}

	if _, _, err = e.membership(ctx, cur.User.ID, orgID); err != nil {
		return nil, err
	}

	return invitation.ListForOrganization(e.db.WithContext(ctx), orgID)
}

// ListUserInvitations returns the open invitations addressed to the current user.
func (e *Engine) ListUserInvitations(ctx context.Context, cur *CurrentSession) ([]models.Invitation, error) {
	return invitation.ListOpenForEmail(e.db.WithContext(ctx), cur.User.Email, e.now())
}
