package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

// MustSucceed is a hook whose failure aborts the operation that triggered it.
type MustSucceed[T any] func(ctx context.Context, in T) error

// Run calls the hook. A nil hook succeeds.
func (h MustSucceed[T]) Run(ctx context.Context, in T) error {
	if h == nil {
		return nil
	}

	return h(ctx, in)
}

// BestEffort is a hook whose failure is logged and otherwise ignored.
type BestEffort[T any] func(ctx context.Context, in T) error

// Fire calls the hook and logs a failure or panic at warn level.
// It has no result so callers can not act on the outcome.
func (h BestEffort[T]) Fire(ctx context.Context, name string, in T) {
	if h == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("hook", name).Str("panic", fmt.Sprint(r)).Msg("best effort hook panicked")
		}
	}()

	if err := h(ctx, in); err != nil {
		log.Warn().Err(err).Str("hook", name).Msg("best effort hook failed")
	}
}

// SessionTransform may rewrite a session before it is stored.
// An error aborts the sign-in.
type SessionTransform func(ctx context.Context, s models.Session) (models.Session, error)

// OrganizationCreated is passed to the after organization create hook.
type OrganizationCreated struct {
	Organization models.Organization
	Member       models.Member
	User         models.User
}

// InvitationEmail is passed to the send invitation hook.
type InvitationEmail struct {
	ID           string
	Email        string
	Role         models.MemberRole
	ExpiresAt    time.Time
	Inviter      models.User
	Organization models.Organization
}

// VerificationEmail is passed to the send verification hook.
type VerificationEmail struct {
	User  models.User
	URL   string
	Token string
}

// ResetPasswordEmail is passed to the send reset password hook.
type ResetPasswordEmail struct {
	User  models.User
	URL   string
	Token string
}

// Hooks are the extension points of the engine.
type Hooks struct {
	// BeforeSessionCreate runs before every session insert.
	BeforeSessionCreate SessionTransform
	// AfterOrganizationCreate runs once the organization and its owner are stored.
	AfterOrganizationCreate BestEffort[OrganizationCreated]
	// SendInvitationEmail must deliver the invitation, a failure removes the invitation again.
	SendInvitationEmail MustSucceed[InvitationEmail]
	// SendVerificationEmail must deliver the verification link.
	SendVerificationEmail MustSucceed[VerificationEmail]
	// SendResetPassword must deliver the reset link.
	SendResetPassword MustSucceed[ResetPasswordEmail]
}
