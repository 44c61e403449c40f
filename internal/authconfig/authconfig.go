// Package authconfig builds the auth engine configuration of the application:
// email and password policy, social providers and the lifecycle hooks that
// tag sessions with organizations and send the transactional emails.
package authconfig

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/organization"
	"github.com/tenantgate/tenantgate/internal/db/controller/session"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/mail"
)

// Deps are the collaborators of the hooks.
type Deps struct {
	DB       *gorm.DB
	Mailer   mail.Sender
	Renderer *mail.Renderer
	Logger   zerolog.Logger
}

// OrganizationLookup resolves the organization a user works in, nil when there is none.
type OrganizationLookup func(ctx context.Context, userID string) (*models.Organization, error)

// New converts the configuration into engine options.
func New(cfg *config.Config, deps Deps) auth.Options {
	lookup := func(ctx context.Context, userID string) (*models.Organization, error) {
		return organization.ActiveForUser(deps.DB.WithContext(ctx), userID)
	}

	return auth.Options{
		BaseURL:        cfg.AppURL,
		TrustedOrigins: cfg.TrustedOrigins(),
		Session:        auth.SessionOptions{ExpiresIn: cfg.Webserver.Session.ExpiryTime},
		EmailVerification: auth.EmailVerificationOptions{
			SendOnSignUp: cfg.Auth.SendVerificationOnSignUp,
		},
		EmailAndPassword: auth.EmailAndPasswordOptions{
			Enabled:                  true,
			RequireEmailVerification: cfg.Auth.RequireEmailVerification,
		},
		Organization: auth.OrganizationOptions{
			InvitationExpiresIn: cfg.Organization.InvitationExpiry,
			MembershipLimit:     cfg.Organization.MembershipLimit,
			// invitees may not have an account yet
			RequireEmailVerificationOnInvitation: false,
			AccessControl:                        auth.DefaultAccessControl(),
		},
		Hooks: auth.Hooks{
			BeforeSessionCreate:     ActiveOrganizationHook(lookup, deps.Logger),
			AfterOrganizationCreate: TagSessions(deps.DB),
			SendInvitationEmail:     SendInvitationEmail(cfg.AppURL, deps.Renderer, deps.Mailer),
			SendVerificationEmail:   SendVerificationEmail(deps.Renderer, deps.Mailer),
			SendResetPassword:       SendResetPassword(deps.Renderer, deps.Mailer),
		},
	}
}

// ActiveOrganizationHook sets the active organization of every new session to the
// organization the user currently works in. A failing lookup is logged and the
// session is created without organization.
func ActiveOrganizationHook(lookup OrganizationLookup, logger zerolog.Logger) auth.SessionTransform {
	return func(ctx context.Context, s models.Session) (models.Session, error) {
		org, err := lookup(ctx, s.UserID)
		if err != nil {
			logger.Warn().Err(err).Str("user_id", s.UserID).Msg("failed to resolve active organization for new session")

			return s, nil
		}

		if org != nil {
			id := org.ID
			s.ActiveOrganizationID = &id
		}

		return s, nil
	}
}

// TagSessions makes a new organization the active one on every session of its creator.
func TagSessions(db *gorm.DB) auth.BestEffort[auth.OrganizationCreated] {
	return func(ctx context.Context, in auth.OrganizationCreated) error {
		_, err := session.SetActiveOrganizationForUser(db.WithContext(ctx), in.User.ID, in.Organization.ID)

		return err
	}
}

// InvitationLink is the page an invitee opens to accept.
func InvitationLink(baseURL, invitationID string) string {
	return strings.TrimSuffix(baseURL, "/") + "/invitation/" + invitationID
}

// SendInvitationEmail renders the invitation with its deep link and sends it.
// Send errors are returned so the invitation is not kept.
func SendInvitationEmail(baseURL string, r *mail.Renderer, sender mail.Sender) auth.MustSucceed[auth.InvitationEmail] {
	return func(ctx context.Context, in auth.InvitationEmail) error {
		msg, err := r.OrganizationInvitation(mail.Invitation{
			Email:             in.Email,
			InvitedByUsername: in.Inviter.Name,
			InvitedByEmail:    in.Inviter.Email,
			TeamName:          in.Organization.Name,
			InviteLink:        InvitationLink(baseURL, in.ID),
		})
		if err != nil {
			return err
		}

		return sender.Send(ctx, msg)
	}
}

// SendVerificationEmail sends the email confirmation link.
func SendVerificationEmail(r *mail.Renderer, sender mail.Sender) auth.MustSucceed[auth.VerificationEmail] {
	return func(ctx context.Context, in auth.VerificationEmail) error {
		msg, err := r.Verification(in.User.Email, in.User.Name, in.URL)
		if err != nil {
			return err
		}

		return sender.Send(ctx, msg)
	}
}

// SendResetPassword sends the password reset link.
func SendResetPassword(r *mail.Renderer, sender mail.Sender) auth.MustSucceed[auth.ResetPasswordEmail] {
	return func(ctx context.Context, in auth.ResetPasswordEmail) error {
		msg, err := r.ResetPassword(in.User.Email, in.User.Name, in.URL)
		if err != nil {
			return err
		}

		return sender.Send(ctx, msg)
	}
}

// Providers returns the social providers with complete credentials.
func Providers(ctx context.Context, cfg *config.Config, opts auth.Options) []auth.Option {
	var out []auth.Option

	if cfg.Auth.Google.Enabled() {
		out = append(out, auth.WithSocialProvider(auth.NewGoogle(ctx,
			cfg.Auth.Google.ClientID, cfg.Auth.Google.ClientSecret, opts.CallbackURL(auth.ProviderGoogle))))
	}

	if cfg.Auth.GitHub.Enabled() {
		out = append(out, auth.WithSocialProvider(auth.NewGitHub(
			cfg.Auth.GitHub.ClientID, cfg.Auth.GitHub.ClientSecret, opts.CallbackURL(auth.ProviderGitHub))))
	}

	return out
}
