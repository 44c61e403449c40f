package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/db/models"
)

const lastLoginMethodMaxAge = 30 * 24 * time.Hour

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// ErrorResponse is the json body of failed auth calls.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError renders err as ErrorResponse with the mapped status.
func WriteError(c *fiber.Ctx, err error) error {
	status, code := ErrorCode(err)

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("auth request failed")

		msg = "internal server error"
	}

	return c.Status(status).JSON(ErrorResponse{Code: code, Message: msg})
}

// bind parses and validates the request body into out.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	return validateStruct(out)
}

func validateStruct(out any) error {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, ", "))
}

// AddQuery sets a query parameter on a relative or absolute url.
func AddQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()

	return u.String()
}

// Meta extracts the client description of a request.
func Meta(c *fiber.Ctx) RequestMeta {
	return RequestMeta{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// SetSessionCookies stores the session token and the last used sign-in method on the client.
func (e *Engine) SetSessionCookies(c *fiber.Ctx, s *models.Session, method string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HTTPOnly: true,
		Secure:   e.opts.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if method == "" {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     LastLoginMethodCookie,
		Value:    method,
		Path:     "/",
		Expires:  e.now().Add(lastLoginMethodMaxAge),
		Secure:   e.opts.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie, the last used method stays.
func (e *Engine) ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   e.opts.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Routes mounts the auth endpoints on r.
func (e *Engine) Routes(r fiber.Router) {
	r.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	r.Post("/sign-up/email", e.handleSignUpEmail)
	r.Post("/sign-in/email", e.handleSignInEmail)
	r.Get("/sign-in/social", e.handleSignInSocial)
	r.Post("/sign-in/social", e.handleSignInSocial)
	r.Get("/callback/:provider", e.handleCallback)
	r.Post("/sign-out", e.handleSignOut)

	r.Get("/verify-email", e.handleVerifyEmail)
	r.Post("/send-verification-email", e.handleSendVerificationEmail)
	r.Post("/request-password-reset", e.handleRequestPasswordReset)
	r.Get("/reset-password/:token", e.handleResetPasswordCallback)
	r.Post("/reset-password", e.handleResetPassword)

	r.Get("/get-session", e.handleGetSession)

	authed := r.Group("", e.RequireSession())
	authed.Get("/list-sessions", e.handleListSessions)
	authed.Post("/change-password", e.handleChangePassword)

	org := authed.Group("/organization")
	org.Post("/create", e.handleCreateOrganization)
	org.Post("/update", e.handleUpdateOrganization)
	org.Post("/delete", e.handleDeleteOrganization)
	org.Post("/set-active", e.handleSetActiveOrganization)
	org.Get("/list", e.handleListOrganizations)
	org.Get("/get-full-organization", e.handleGetFullOrganization)
	org.Post("/invite-member", e.handleInviteMember)
	org.Post("/accept-invitation", e.handleAcceptInvitation)
	org.Post("/reject-invitation", e.handleRejectInvitation)
	org.Post("/cancel-invitation", e.handleCancelInvitation)
	org.Get("/get-invitation", e.handleGetInvitation)
	org.Get("/list-invitations", e.handleListInvitations)
	org.Get("/list-user-invitations", e.handleListUserInvitations)
	org.Get("/list-members", e.handleListMembers)
	org.Get("/get-active-member", e.handleGetActiveMember)
	org.Post("/remove-member", e.handleRemoveMember)
	org.Post("/update-member-role", e.handleUpdateMemberRole)
}

func (e *Engine) handleSignUpEmail(c *fiber.Ctx) error {
	var in SignUpInput
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	res, err := e.SignUpEmail(c.UserContext(), in, Meta(c))
	if err != nil {
		return WriteError(c, err)
	}

	body := fiber.Map{"token": nil, "user": res.User}

	if res.Session != nil {
		e.SetSessionCookies(c, res.Session, MethodEmail)
		body["token"] = res.Session.Token
	}

	return c.JSON(body)
}

func (e *Engine) handleSignInEmail(c *fiber.Ctx) error {
	var in SignInInput
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	if in.CallbackURL != "" && !IsTrusted(e.opts.TrustedOrigins, in.CallbackURL) {
		return WriteError(c, ErrUntrustedCallback)
	}

	cur, err := e.SignInEmail(c.UserContext(), in, Meta(c))
	if err != nil {
		return WriteError(c, err)
	}

	e.SetSessionCookies(c, &cur.Session, MethodEmail)

	return c.JSON(fiber.Map{
		"redirect": in.CallbackURL != "",
		"url":      in.CallbackURL,
		"token":    cur.Session.Token,
		"user":     cur.User,
	})
}

func (e *Engine) handleSignInSocial(c *fiber.Ctx) error {
	var in SocialStart

	var err error
	if c.Method() == fiber.MethodGet {
		err = c.QueryParser(&in)
	} else {
		err = c.BodyParser(&in)
	}

	if err == nil {
		err = validateStruct(&in)
	}

	if err == nil {
		var authURL string

		authURL, err = e.StartSocial(c.UserContext(), in)
		if err == nil {
			if c.Method() == fiber.MethodGet {
				return c.Redirect(authURL, fiber.StatusFound)
			}

			return c.JSON(fiber.Map{"url": authURL, "redirect": true})
		}
	}

	if c.Method() == fiber.MethodGet {
		return e.redirectError(c, in.ErrorCallbackURL, err)
	}

	return WriteError(c, err)
}

// redirectError sends the browser to target, or /login, with the error code attached.
func (e *Engine) redirectError(c *fiber.Ctx, target string, err error) error {
	if target == "" || !IsTrusted(e.opts.TrustedOrigins, target) {
		target = "/login"
	}

	status, code := ErrorCode(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("social sign-in failed")
	}

	return c.Redirect(AddQuery(target, "error", code), fiber.StatusFound)
}

func (e *Engine) handleCallback(c *fiber.Ctx) error {
	providerID := c.Params("provider")
	state := c.Query("state")
	errorTarget := e.ErrorRedirect(state)

	if providerErr := c.Query("error"); providerErr != "" {
		if errorTarget == "" || !IsTrusted(e.opts.TrustedOrigins, errorTarget) {
			errorTarget = "/login"
		}

		return c.Redirect(AddQuery(errorTarget, "error", strings.ToUpper(providerErr)), fiber.StatusFound)
	}

	res, err := e.FinishSocial(c.UserContext(), providerID, state, c.Query("code"), Meta(c))
	if err != nil {
		return e.redirectError(c, errorTarget, err)
	}

	e.SetSessionCookies(c, &res.Session, providerID)

	return c.Redirect(res.Redirect, fiber.StatusFound)
}

func (e *Engine) handleSignOut(c *fiber.Ctx) error {
	if token := c.Cookies(SessionCookie); token != "" {
		if err := e.SignOut(c.UserContext(), token); err != nil {
			return WriteError(c, err)
		}
	}

	e.ClearSessionCookie(c)

	return c.JSON(fiber.Map{"success": true})
}

func (e *Engine) handleVerifyEmail(c *fiber.Ctx) error {
	callbackURL := c.Query("callbackURL")
	if callbackURL != "" && !IsTrusted(e.opts.TrustedOrigins, callbackURL) {
		return WriteError(c, ErrUntrustedCallback)
	}

	u, err := e.VerifyEmail(c.UserContext(), c.Query("token"))
	if err != nil {
		if callbackURL != "" {
			_, code := ErrorCode(err)

			return c.Redirect(AddQuery(callbackURL, "error", code), fiber.StatusFound)
		}

		return WriteError(c, err)
	}

	if e.opts.EmailVerification.AutoSignInAfterVerification {
		s, sessErr := e.createSession(c.UserContext(), u.ID, Meta(c))
		if sessErr != nil {
			return WriteError(c, sessErr)
		}

		e.SetSessionCookies(c, s, "")
	}

	if callbackURL != "" {
		return c.Redirect(callbackURL, fiber.StatusFound)
	}

	return c.JSON(fiber.Map{"status": true, "user": u})
}

type emailRequest struct {
	Email       string `json:"email" validate:"required,email"`
	CallbackURL string `json:"callbackURL"`
	RedirectTo  string `json:"redirectTo"`
}

func (e *Engine) handleSendVerificationEmail(c *fiber.Ctx) error {
	var in emailRequest
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	if err := e.SendVerificationEmail(c.UserContext(), in.Email, in.CallbackURL); err != nil {
		return WriteError(c, err)
	}

	return c.JSON(fiber.Map{"status": true})
}

func (e *Engine) handleRequestPasswordReset(c *fiber.Ctx) error {
	var in emailRequest
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	if err := e.RequestPasswordReset(c.UserContext(), in.Email, in.RedirectTo); err != nil {
		return WriteError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  true,
		"message": "If this email exists in our system, check your email for the reset link",
	})
}

func (e *Engine) handleResetPasswordCallback(c *fiber.Ctx) error {
	token := c.Params("token")
	callbackURL := c.Query("callbackURL")

	if callbackURL == "" || !IsTrusted(e.opts.TrustedOrigins, callbackURL) {
		if err := e.CheckResetToken(c.UserContext(), token); err != nil {
			return WriteError(c, err)
		}

		return c.JSON(fiber.Map{"token": token})
	}

	if err := e.CheckResetToken(c.UserContext(), token); err != nil {
		_, code := ErrorCode(err)

		return c.Redirect(AddQuery(callbackURL, "error", code), fiber.StatusFound)
	}

	return c.Redirect(AddQuery(callbackURL, "token", token), fiber.StatusFound)
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (e *Engine) handleResetPassword(c *fiber.Ctx) error {
	var in resetPasswordRequest
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	if err := e.ResetPassword(c.UserContext(), in.Token, in.NewPassword); err != nil {
		return WriteError(c, err)
	}

	return c.JSON(fiber.Map{"status": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (e *Engine) handleChangePassword(c *fiber.Ctx) error {
	var in changePasswordRequest
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	if err := e.ChangePassword(c.UserContext(), Current(c), in.CurrentPassword, in.NewPassword); err != nil {
		return WriteError(c, err)
	}

	return c.JSON(fiber.Map{"status": true})
}

func (e *Engine) handleGetSession(c *fiber.Ctx) error {
	cur, err := e.load(c)
	if errors.Is(err, ErrUnauthorized) {
		return c.JSON(nil)
	}

	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(cur)
}

func (e *Engine) handleListSessions(c *fiber.Ctx) error {
	sessions, err := e.ListSessions(c.UserContext(), Current(c))
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(sessions)
}

// respond writes v as json or the error of a call.
func respond[T any](c *fiber.Ctx, v T, err error) error {
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(v)
}

// bound parses the body into a new T and calls fn with it.
func bound[T any, R any](c *fiber.Ctx, fn func(ctx context.Context, cur *CurrentSession, in T) (R, error)) error {
	var in T
	if err := bind(c, &in); err != nil {
		return WriteError(c, err)
	}

	v, err := fn(c.UserContext(), Current(c), in)

	return respond(c, v, err)
}

type organizationRequest struct {
	OrganizationID string `json:"organizationId" query:"organizationId"`
}

type invitationRequest struct {
	InvitationID string `json:"invitationId" query:"id" validate:"required"`
}

type removeMemberRequest struct {
	OrganizationID  string `json:"organizationId"`
	MemberIDOrEmail string `json:"memberIdOrEmail" validate:"required"`
}

type updateMemberRoleRequest struct {
	OrganizationID string            `json:"organizationId"`
	MemberID       string            `json:"memberId" validate:"required"`
	Role           models.MemberRole `json:"role" validate:"required"`
}

func (e *Engine) handleCreateOrganization(c *fiber.Ctx) error {
	return bound(c, e.CreateOrganization)
}

func (e *Engine) handleUpdateOrganization(c *fiber.Ctx) error {
	return bound(c, e.UpdateOrganization)
}

func (e *Engine) handleDeleteOrganization(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in organizationRequest) (fiber.Map, error) {
		return fiber.Map{"status": true}, e.DeleteOrganization(ctx, cur, in.OrganizationID)
	})
}

func (e *Engine) handleSetActiveOrganization(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in organizationRequest) (*models.Organization, error) {
		return e.SetActiveOrganization(ctx, cur, in.OrganizationID)
	})
}

func (e *Engine) handleListOrganizations(c *fiber.Ctx) error {
	orgs, err := e.ListOrganizations(c.UserContext(), Current(c))

	return respond(c, orgs, err)
}

func (e *Engine) handleGetFullOrganization(c *fiber.Ctx) error {
	full, err := e.GetFullOrganization(c.UserContext(), Current(c), c.Query("organizationId"))

	return respond(c, full, err)
}

func (e *Engine) handleInviteMember(c *fiber.Ctx) error {
	return bound(c, e.InviteMember)
}

func (e *Engine) handleAcceptInvitation(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in invitationRequest) (fiber.Map, error) {
		m, inv, err := e.AcceptInvitation(ctx, cur, in.InvitationID)

		return fiber.Map{"member": m, "invitation": inv}, err
	})
}

func (e *Engine) handleRejectInvitation(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in invitationRequest) (*models.Invitation, error) {
		return e.RejectInvitation(ctx, cur, in.InvitationID)
	})
}

func (e *Engine) handleCancelInvitation(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in invitationRequest) (*models.Invitation, error) {
		return e.CancelInvitation(ctx, cur, in.InvitationID)
	})
}

func (e *Engine) handleGetInvitation(c *fiber.Ctx) error {
	inv, err := e.GetInvitation(c.UserContext(), Current(c), c.Query("id"))

	return respond(c, inv, err)
}

func (e *Engine) handleListInvitations(c *fiber.Ctx) error {
	invs, err := e.ListInvitations(c.UserContext(), Current(c), c.Query("organizationId"))

	return respond(c, invs, err)
}

func (e *Engine) handleListUserInvitations(c *fiber.Ctx) error {
	invs, err := e.ListUserInvitations(c.UserContext(), Current(c))

	return respond(c, invs, err)
}

func (e *Engine) handleListMembers(c *fiber.Ctx) error {
	members, err := e.ListMembers(c.UserContext(), Current(c), c.Query("organizationId"))

	return respond(c, members, err)
}

func (e *Engine) handleGetActiveMember(c *fiber.Ctx) error {
	m, err := e.GetActiveMember(c.UserContext(), Current(c))

	return respond(c, m, err)
}

func (e *Engine) handleRemoveMember(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in removeMemberRequest) (*models.Member, error) {
		return e.RemoveMember(ctx, cur, in.OrganizationID, in.MemberIDOrEmail)
	})
}

func (e *Engine) handleUpdateMemberRole(c *fiber.Ctx) error {
	return bound(c, func(ctx context.Context, cur *CurrentSession, in updateMemberRoleRequest) (*models.Member, error) {
		return e.UpdateMemberRole(ctx, cur, in.OrganizationID, in.MemberID, in.Role)
	})
}
