// Package invitation serves the page an invitation email links to.
//
// Visitors without a session sign in first and come back with accepted=true,
// which accepts the invitation right away.
package invitation

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
	// Path is the invitation page, the id follows.
	Path = "/invitation"

	// Template is the page template.
	Template = "invitation"
)

// View is what the page shows about an invitation.
type View struct {
	ID               string
	OrganizationName string
	InviterName      string
	InviterEmail     string
	Email            string
	Role             models.MemberRole
	ExpiresAt        string
}

// Service is the invitation handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the invitation handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the invitation handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Route(Path+"/:id", func(router fiber.Router) {
		router.Use(authmiddleware.RequireLogin)
		router.Get(handler.RootPath, s.Get)
		router.Post("/accept", s.Accept)
		router.Post("/reject", s.Reject)
	})

	return nil
}

// Get shows the invitation, or accepts it when the visitor comes back from signing in.
func (s *Service) Get(c *fiber.Ctx) error {
	cur := auth.Current(c)
	id := c.Params("id")

	inv, err := s.engine.GetInvitation(c.UserContext(), cur, id)
	if err != nil {
		return s.fail(c, nil, err)
	}

	if c.QueryBool("accepted") {
		return s.accept(c, cur, inv)
	}

	return handler.Render(c, s.cfg, Template, fiber.Map{"Invitation": view(inv)})
}

// Accept joins the organization.
func (s *Service) Accept(c *fiber.Ctx) error {
	cur := auth.Current(c)

	inv, err := s.engine.GetInvitation(c.UserContext(), cur, c.Params("id"))
	if err != nil {
		return s.fail(c, nil, err)
	}

	return s.accept(c, cur, inv)
}

// Reject declines the invitation.
func (s *Service) Reject(c *fiber.Ctx) error {
	if _, err := s.engine.RejectInvitation(c.UserContext(), auth.Current(c), c.Params("id")); err != nil {
		return s.fail(c, nil, err)
	}

	return c.Redirect(handler.WithQuery(handler.DashboardPath, "notice", "invitation-rejected"), fiber.StatusSeeOther)
}

func (s *Service) accept(c *fiber.Ctx, cur *auth.CurrentSession, inv *models.Invitation) error {
	if _, _, err := s.engine.AcceptInvitation(c.UserContext(), cur, inv.ID); err != nil {
		return s.fail(c, inv, err)
	}

	return c.Redirect(handler.WithQuery(handler.DashboardPath, "notice", "invitation-accepted"), fiber.StatusSeeOther)
}

func (s *Service) fail(c *fiber.Ctx, inv *models.Invitation, err error) error {
	if status, _ := auth.ErrorCode(err); status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("invitation", c.Params("id")).Msg("invitation page failed")
	}

	data := fiber.Map{"Toast": handler.ErrorToast(err)}
	if inv != nil {
		data["Invitation"] = view(inv)
	}

	return handler.Render(c, s.cfg, Template, data)
}

func view(inv *models.Invitation) *View {
	inviter := inv.Inviter.Name
	if inviter == "" {
		inviter = inv.Inviter.Email
	}

	return &View{
		ID:               inv.ID,
		OrganizationName: inv.Organization.Name,
		InviterName:      inviter,
		InviterEmail:     inv.Inviter.Email,
		Email:            inv.Email,
		Role:             inv.Role,
		ExpiresAt:        inv.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"),
	}
}
