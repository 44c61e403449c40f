// Package logout ends the session of the browser.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

// Path is the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the logout handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	// reachable without a session, an expired cookie still gets cleared
	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout deletes the session and clears the cookie. The last used method cookie stays.
func (s *Service) Logout(c *fiber.Ctx) error {
	if cur := auth.Current(c); cur != nil {
		if err := s.engine.SignOut(c.UserContext(), cur.Session.Token); err != nil {
			log.Error().Err(err).Msg("failed to delete session")
		}
	}

	s.engine.ClearSessionCookie(c)

	return c.Redirect(handler.LoginPath, fiber.StatusSeeOther)
}
