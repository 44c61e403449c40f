package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	sessionctrl "github.com/tenantgate/tenantgate/internal/db/controller/session"
	"github.com/tenantgate/tenantgate/internal/db/controller/user"
	"github.com/tenantgate/tenantgate/internal/db/controller/verification"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/uniuri"
)

const (
	// MethodEmail is the last login method of email and password sign-ins.
	MethodEmail = "email"

	verifyEmailPrefix   = "verify-email:"
	resetPasswordPrefix = "reset-password:"

	emailKindVerification = "verification"
	emailKindReset        = "reset_password"
	emailKindInvitation   = "invitation"
)

// SignUpInput is the payload of an email and password sign-up.
type SignUpInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
	CallbackURL string `json:"callbackURL"`
}

// SignInInput is the payload of an email and password sign-in.
type SignInInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	CallbackURL string `json:"callbackURL"`
}

// SignUpResult is the created user and, when no verification is required, its session.
type SignUpResult struct {
	User    models.User     `json:"user"`
	Session *models.Session `json:"session,omitempty"`
}

func (e *Engine) checkPassword(password string) error {
	n := utf8.RuneCountInString(password)

	switch {
	case n < e.opts.EmailAndPassword.MinPasswordLength:
		return ErrPasswordTooShort
	case n > e.opts.EmailAndPassword.MaxPasswordLength:
		return ErrPasswordTooLong
	default:
		return nil
	}
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// SignUpEmail creates a user with a credential account.
// A verification email is sent when configured, its failure is returned and the user is kept.
func (e *Engine) SignUpEmail(ctx context.Context, in SignUpInput, meta RequestMeta) (*SignUpResult, error) {
	if !e.opts.EmailAndPassword.Enabled {
		return nil, ErrEmailPasswordDisabled
	}

	if !validEmail(in.Email) {
		return nil, ErrInvalidEmail
	}

	if err := e.checkPassword(in.Password); err != nil {
		return nil, err
	}

	if in.CallbackURL != "" && !IsTrusted(e.opts.TrustedOrigins, in.CallbackURL) {
		return nil, ErrUntrustedCallback
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	u := &models.User{Name: strings.TrimSpace(in.Name), Email: in.Email, Image: in.Image}
	account := &models.Account{ProviderID: models.ProviderCredential, Password: hash}

	err = user.CreateWithAccount(e.db.WithContext(ctx), u, account)
	if errors.Is(err, user.ErrUserAlreadyExists) {
		return nil, ErrUserAlreadyExists
	}

	if err != nil {
		return nil, err
	}

	res := &SignUpResult{User: *u}

	if e.opts.EmailVerification.SendOnSignUp {
		if err = e.sendVerification(ctx, u, in.CallbackURL); err != nil {
			return res, err
		}
	}

	if e.opts.EmailAndPassword.RequireEmailVerification {
		return res, nil
	}

	res.Session, err = e.createSession(ctx, u.ID, meta)
	if err != nil {
		return res, err
	}

	return res, nil
}

// SignInEmail checks the credentials and creates a session.
func (e *Engine) SignInEmail(ctx context.Context, in SignInInput, meta RequestMeta) (cur *CurrentSession, err error) {
	defer func() { countSignIn(MethodEmail, err) }()

	if !e.opts.EmailAndPassword.Enabled {
		return nil, ErrEmailPasswordDisabled
	}

	if !validEmail(in.Email) {
		return nil, ErrInvalidEmail
	}

	db := e.db.WithContext(ctx)

	u, err := user.GetByEmail(db, in.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		// hash anyway so unknown emails take as long as wrong passwords
		_, _ = models.HashPassword(in.Password)

		return nil, ErrInvalidEmailOrPassword
	}

	if err != nil {
		return nil, err
	}

	account, err := user.GetCredentialAccount(db, u.ID)
	if errors.Is(err, user.ErrAccountNotFound) {
		return nil, ErrInvalidEmailOrPassword
	}

	if err != nil {
		return nil, err
	}

	if !account.VerifyPassword(in.Password) {
		return nil, ErrInvalidEmailOrPassword
	}

	if e.opts.EmailAndPassword.RequireEmailVerification && !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	s, err := e.createSession(ctx, u.ID, meta)
	if err != nil {
		return nil, err
	}

	return &CurrentSession{Session: *s, User: *u}, nil
}

// verificationURL is the link that confirms an email address.
func (e *Engine) verificationURL(token, callbackURL string) string {
	q := url.Values{"token": {token}}
	if callbackURL != "" {
		q.Set("callbackURL", callbackURL)
	}

	return e.opts.BaseURL + e.opts.BasePath + "/verify-email?" + q.Encode()
}

func (e *Engine) sendVerification(ctx context.Context, u *models.User, callbackURL string) (err error) {
	defer func() { countEmail(emailKindVerification, err) }()

	token := uniuri.Token()

	err = verification.Create(e.db.WithContext(ctx), verifyEmailPrefix+token, u.ID, e.now().Add(e.opts.EmailVerification.ExpiresIn))
	if err != nil {
		return err
	}

	err = e.opts.Hooks.SendVerificationEmail.Run(ctx, VerificationEmail{
		User:  *u,
		URL:   e.verificationURL(token, callbackURL),
		Token: token,
	})
	if err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	return nil
}

// SendVerificationEmail sends a new link to an unverified user.
// Unknown and verified emails succeed silently.
func (e *Engine) SendVerificationEmail(ctx context.Context, email, callbackURL string) error {
	if callbackURL != "" && !IsTrusted(e.opts.TrustedOrigins, callbackURL) {
		return ErrUntrustedCallback
	}

	u, err := user.GetByEmail(e.db.WithContext(ctx), email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	if u.EmailVerified {
		return nil
	}

	return e.sendVerification(ctx, u, callbackURL)
}

// VerifyEmail consumes a verification token and marks the email verified.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	db := e.db.WithContext(ctx)

	userID, err := verification.Consume(db, verifyEmailPrefix+token, e.now())
	if errors.Is(err, verification.ErrNotFound) || errors.Is(err, verification.ErrExpired) {
		return nil, ErrInvalidToken
	}

	if err != nil {
		return nil, err
	}

	if err = user.MarkEmailVerified(db, userID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}

		return nil, err
	}

	return user.Get(db, userID)
}

// RequestPasswordReset emails a reset link. Unknown emails succeed silently.
func (e *Engine) RequestPasswordReset(ctx context.Context, email, redirectTo string) (err error) {
	if redirectTo != "" && !IsTrusted(e.opts.TrustedOrigins, redirectTo) {
		return ErrUntrustedCallback
	}

	db := e.db.WithContext(ctx)

	u, err := user.GetByEmail(db, email)
	if errors.Is(err, user.ErrUserNotFound) {
		log.Debug().Msg("password reset requested for unknown email")

		return nil
	}

	if err != nil {
		return err
	}

	defer func() { countEmail(emailKindReset, err) }()

	token := uniuri.Token()

	err = verification.Create(db, resetPasswordPrefix+token, u.ID, e.now().Add(e.opts.EmailAndPassword.ResetPasswordExpiresIn))
	if err != nil {
		return err
	}

	link := e.opts.BaseURL + e.opts.BasePath + "/reset-password/" + token
	if redirectTo != "" {
		link += "?" + url.Values{"callbackURL": {redirectTo}}.Encode()
	}

	err = e.opts.Hooks.SendResetPassword.Run(ctx, ResetPasswordEmail{User: *u, URL: link, Token: token})
	if err != nil {
		return fmt.Errorf("send reset password email: %w", err)
	}

	return nil
}

// CheckResetToken reports whether a reset token is still usable.
func (e *Engine) CheckResetToken(ctx context.Context, token string) error {
	_, err := verification.Peek(e.db.WithContext(ctx), resetPasswordPrefix+token, e.now())
	if errors.Is(err, verification.ErrNotFound) || errors.Is(err, verification.ErrExpired) {
		return ErrInvalidToken
	}

	return err
}

// ResetPassword consumes a reset token and stores the new password.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := e.checkPassword(newPassword); err != nil {
		return err
	}

	db := e.db.WithContext(ctx)

	userID, err := verification.Consume(db, resetPasswordPrefix+token, e.now())
	if errors.Is(err, verification.ErrNotFound) || errors.Is(err, verification.ErrExpired) {
		return ErrInvalidToken
	}

	if err != nil {
		return err
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err = user.SetPassword(db, userID, hash); err != nil {
		return err
	}

	if e.opts.EmailAndPassword.RevokeSessionsOnPasswordReset {
		if err = sessionctrl.DeleteForUser(db, userID); err != nil {
			return err
		}
	}

	return nil
}

// ChangePassword replaces the password of the signed-in user after checking the current one.
func (e *Engine) ChangePassword(ctx context.Context, cur *CurrentSession, currentPassword, newPassword string) error {
	if err := e.checkPassword(newPassword); err != nil {
		return err
	}

	db := e.db.WithContext(ctx)

	account, err := user.GetCredentialAccount(db, cur.User.ID)
	if errors.Is(err, user.ErrAccountNotFound) {
		return ErrInvalidEmailOrPassword
	}

	if err != nil {
		return err
	}

	if !account.VerifyPassword(currentPassword) {
		return ErrInvalidEmailOrPassword
	}

	hash, err := models.HashPassword(newPassword)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return user.SetPassword(db, cur.User.ID, hash)
}
