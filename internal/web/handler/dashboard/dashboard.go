// Package dashboard serves the home page of signed-in users: their
// organizations, the active one with its members, and open invitations.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.DashboardPath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard"
)

// OrganizationForm creates an organization.
type OrganizationForm struct {
	Name string `form:"name" validate:"required,max=255"`
	Slug string `form:"slug" validate:"omitempty,max=255"`
}

// InviteForm invites an email address into the active organization.
type InviteForm struct {
	Email string `form:"email" validate:"required,email"`
	Role  string `form:"role"  validate:"omitempty,oneof=member admin owner"`
}

// ActiveForm switches the active organization.
type ActiveForm struct {
	OrganizationID string `form:"organizationId" validate:"required"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the dashboard handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Route(Path, func(router fiber.Router) {
		router.Use(authmiddleware.RequireLogin)
		router.Get(handler.RootPath, s.Get)
		router.Post("/organizations", s.CreateOrganization)
		router.Post("/active", s.SetActive)
		router.Post("/invitations", s.Invite)
		router.Post("/invitations/:id/cancel", s.CancelInvitation)
	})

	return nil
}

// Get renders the dashboard.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, nil, "")
}

// CreateOrganization creates an organization and makes it the active one.
func (s *Service) CreateOrganization(c *fiber.Ctx) error {
	var form OrganizationForm

	if err := s.parse(c, &form); err != nil {
		return s.render(c, handler.FieldErrors(err), formToast(err))
	}

	_, err := s.engine.CreateOrganization(c.UserContext(), auth.Current(c), auth.CreateOrganizationInput{
		Name: form.Name,
		Slug: form.Slug,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return s.done(c, "organization-added")
}

// SetActive switches the organization the session works in.
func (s *Service) SetActive(c *fiber.Ctx) error {
	var form ActiveForm

	if err := s.parse(c, &form); err != nil {
		return s.render(c, handler.FieldErrors(err), formToast(err))
	}

	if _, err := s.engine.SetActiveOrganization(c.UserContext(), auth.Current(c), form.OrganizationID); err != nil {
		return s.fail(c, err)
	}

	return s.done(c, "")
}

// Invite sends an invitation for the active organization.
func (s *Service) Invite(c *fiber.Ctx) error {
	var form InviteForm

	if err := s.parse(c, &form); err != nil {
		return s.render(c, handler.FieldErrors(err), formToast(err))
	}

	_, err := s.engine.InviteMember(c.UserContext(), auth.Current(c), auth.InviteInput{
		Email: form.Email,
		Role:  models.MemberRole(form.Role),
	})
	if err != nil {
		return s.fail(c, err)
	}

	return s.done(c, "invited")
}

// CancelInvitation withdraws a pending invitation of the active organization.
func (s *Service) CancelInvitation(c *fiber.Ctx) error {
	if _, err := s.engine.CancelInvitation(c.UserContext(), auth.Current(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}

	return s.done(c, "")
}

func (s *Service) parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidForm
	}

	return handler.Validate.Struct(out) //nolint:wrapcheck
}

var errInvalidForm = errors.New("invalid form data")

func formToast(err error) string {
	if errors.Is(err, errInvalidForm) {
		return err.Error()
	}

	return ""
}

func (s *Service) done(c *fiber.Ctx, notice string) error {
	if notice == "" {
		return c.Redirect(Path, fiber.StatusSeeOther)
	}

	return c.Redirect(handler.WithQuery(Path, "notice", notice), fiber.StatusSeeOther)
}

func (s *Service) fail(c *fiber.Ctx, err error) error {
	if status, _ := auth.ErrorCode(err); status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("dashboard action failed")
	}

	return s.render(c, nil, handler.ErrorToast(err))
}

func (s *Service) render(c *fiber.Ctx, errs map[string]string, toast string) error {
	ctx := c.UserContext()
	cur := auth.Current(c)

	orgs, err := s.engine.ListOrganizations(ctx, cur)
	if err != nil {
		return err //nolint:wrapcheck
	}

	invitations, err := s.engine.ListUserInvitations(ctx, cur)
	if err != nil {
		return err //nolint:wrapcheck
	}

	data := fiber.Map{
		"User":          cur.User,
		"Organizations": orgs,
		"Invitations":   invitations,
		"Errors":        errs,
		"Toast":         toast,
	}

	if cur.ActiveOrganizationID() != "" {
		if err = s.active(c, cur, data); err != nil {
			return err
		}
	}

	return handler.Render(c, s.cfg, TemplateName, data)
}

// active adds the active organization, the role in it and what the role may do.
func (s *Service) active(c *fiber.Ctx, cur *auth.CurrentSession, data fiber.Map) error {
	ctx := c.UserContext()

	full, err := s.engine.GetFullOrganization(ctx, cur, "")
	if errors.Is(err, auth.ErrOrganizationNotFound) || errors.Is(err, auth.ErrNotMember) {
		// the organization is gone or the user left it
		return nil
	}

	if err != nil {
		return err //nolint:wrapcheck
	}

	member, err := s.engine.GetActiveMember(ctx, cur)
	if err != nil {
		return err //nolint:wrapcheck
	}

	ac := s.engine.Options().Organization.AccessControl

	data["Active"] = full
	data["Role"] = member.Role
	data["CanInvite"] = ac.Can(member.Role, auth.ResourceInvitation, auth.ActionCreate)
	data["CanCancel"] = ac.Can(member.Role, auth.ResourceInvitation, auth.ActionCancel)

	return nil
}
