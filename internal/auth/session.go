package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/controller/organization"
	sessionctrl "github.com/tenantgate/tenantgate/internal/db/controller/session"
	"github.com/tenantgate/tenantgate/internal/db/controller/user"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/uniuri"
)

// RequestMeta describes the client a session is created for.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// CurrentSession is a valid session together with its user.
type CurrentSession struct {
	Session models.Session `json:"session"`
	User    models.User    `json:"user"`
}

// ActiveOrganizationID returns the active organization id or "".
func (c *CurrentSession) ActiveOrganizationID() string {
	if c == nil || c.Session.ActiveOrganizationID == nil {
		return ""
	}

	return *c.Session.ActiveOrganizationID
}

// createSession runs the before create hook and stores a new session.
func (e *Engine) createSession(ctx context.Context, userID string, meta RequestMeta) (*models.Session, error) {
	s := models.Session{
		Token:     uniuri.Token(),
		UserID:    userID,
		ExpiresAt: e.now().Add(e.opts.Session.ExpiresIn),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	if hook := e.opts.Hooks.BeforeSessionCreate; hook != nil {
		var err error

		s, err = hook(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("before session create: %w", err)
		}

		// the hook may not take over another user or token
		s.UserID = userID
	}

	if err := sessionctrl.Create(e.db.WithContext(ctx), &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// CreateSession signs a user in without credentials, e.g. after email verification.
func (e *Engine) CreateSession(ctx context.Context, userID string, meta RequestMeta) (*models.Session, error) {
	return e.createSession(ctx, userID, meta)
}

// GetSession resolves a session token. Expired sessions are deleted and reported as ErrUnauthorized.
func (e *Engine) GetSession(ctx context.Context, token string) (*CurrentSession, error) {
	db := e.db.WithContext(ctx)

	s, err := sessionctrl.GetByToken(db, token)
	if errors.Is(err, sessionctrl.ErrSessionNotFound) {
		return nil, ErrUnauthorized
	}

	if err != nil {
		return nil, err
	}

	if s.Expired(e.now()) {
		if err = sessionctrl.DeleteByToken(db, token); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("failed to delete expired session")
		}

		return nil, ErrUnauthorized
	}

	u, err := user.Get(db, s.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrUnauthorized
	}

	if err != nil {
		return nil, err
	}

	return &CurrentSession{Session: *s, User: *u}, nil
}

// SignOut deletes the session of token.
func (e *Engine) SignOut(ctx context.Context, token string) error {
	return sessionctrl.DeleteByToken(e.db.WithContext(ctx), token)
}

// ListSessions returns the sessions of the signed-in user.
func (e *Engine) ListSessions(ctx context.Context, cur *CurrentSession) ([]models.Session, error) {
	return sessionctrl.ListForUser(e.db.WithContext(ctx), cur.User.ID)
}

// SetActiveOrganization switches the organization of the current session.
// An empty organizationID clears it. The user must be a member.
func (e *Engine) SetActiveOrganization(ctx context.Context, cur *CurrentSession, organizationID string) (*models.Organization, error) {
	db := e.db.WithContext(ctx)

	if organizationID == "" {
		if err := sessionctrl.SetActiveOrganization(db, cur.Session.Token, nil); err != nil {
			return nil, err
		}

		cur.Session.ActiveOrganizationID = nil

		return nil, nil //nolint:nilnil
	}

	org, _, err := e.membership(ctx, cur.User.ID, organizationID)
	if err != nil {
		return nil, err
	}

	if err = sessionctrl.SetActiveOrganization(db, cur.Session.Token, &org.ID); err != nil {
		return nil, err
	}

	cur.Session.ActiveOrganizationID = &org.ID

	return org, nil
}

// membership loads an organization and the membership of userID in it.
func (e *Engine) membership(ctx context.Context, userID, organizationID string) (*models.Organization, *models.Member, error) {
	db := e.db.WithContext(ctx)

	org, err := organization.Get(db, organizationID)
	if errors.Is(err, organization.ErrOrganizationNotFound) {
		return nil, nil, ErrOrganizationNotFound
	}

	if err != nil {
		return nil, nil, err
	}

	m, err := organization.GetMember(db, org.ID, userID)
	if errors.Is(err, organization.ErrMemberNotFound) {
		return nil, nil, ErrNotMember
	}

	if err != nil {
		return nil, nil, err
	}

	return org, m, nil
}
