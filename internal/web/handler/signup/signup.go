// Package signup serves the email and password registration page.
package signup

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	"github.com/tenantgate/tenantgate/internal/web/handler/login"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path is the path to the sign-up page.
	Path = "/signup"

	// Template is the page template.
	Template = "signup"
)

// Form is the submitted sign-up form.
type Form struct {
	Name       string `form:"name"       validate:"required,max=255"`
	Email      string `form:"email"      validate:"required,email"`
	Password   string `form:"password"   validate:"required,min=8,max=128"`
	RedirectTo string `form:"redirectTo"`
}

// Service is the sign-up handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the sign-up handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the sign-up handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, authmiddleware.RedirectSignedIn, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get renders the empty form.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, Form{Email: c.Query("email"), RedirectTo: c.Query("redirectTo")}, nil, "", false)
}

// Post creates the account. Without required verification the user is signed in
// right away, otherwise the page asks to open the emailed link.
func (s *Service) Post(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, form, nil, login.ErrInvalidFormData.Error(), false)
	}

	if err := handler.Validate.Struct(form); err != nil {
		return s.render(c, form, handler.FieldErrors(err), "", false)
	}

	target := login.RedirectTarget(form.RedirectTo, s.engine.Options().TrustedOrigins)

	res, err := s.engine.SignUpEmail(c.UserContext(), auth.SignUpInput{
		Name:        form.Name,
		Email:       form.Email,
		Password:    form.Password,
		CallbackURL: verifiedCallback(form.RedirectTo),
	}, auth.Meta(c))
	if err != nil {
		if status, _ := auth.ErrorCode(err); status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Msg("sign-up failed")
		}

		return s.render(c, form, nil, handler.ErrorToast(err), false)
	}

	if res.Session == nil {
		return s.render(c, form, nil, "", true)
	}

	s.engine.SetSessionCookies(c, res.Session, auth.MethodEmail)

	return c.Redirect(target, fiber.StatusSeeOther)
}

func (s *Service) render(c *fiber.Ctx, form Form, errs map[string]string, toast string, checkEmail bool) error {
	return handler.Render(c, s.cfg, Template, fiber.Map{
		"Name":       form.Name,
		"Email":      form.Email,
		"RedirectTo": form.RedirectTo,
		"Errors":     errs,
		"Toast":      toast,
		"CheckEmail": checkEmail,
	})
}

// verifiedCallback is where the verification link lands, the login page
// with a notice that still knows where the user was going.
func verifiedCallback(redirectTo string) string {
	target := handler.WithQuery(handler.LoginPath, "notice", "email-verified")
	if redirectTo != "" {
		target = handler.WithQuery(target, "redirectTo", redirectTo)
	}

	return target
}
