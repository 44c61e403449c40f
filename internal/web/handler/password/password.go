// Package password serves the forgot password and reset password pages.
//
// The reset email links to the auth route /reset-password/:token, which checks
// the token and sends the browser on to ResetPath?token=<token> or
// ResetPath?error=INVALID_TOKEN.
package password

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	"github.com/tenantgate/tenantgate/internal/web/handler/login"
)

const (
	// ForgotPath asks for the email address.
	ForgotPath = "/forgot-password"
	// ResetPath asks for the new password.
	ResetPath = "/reset-password"

	forgotTemplate = "forgot-password"
	resetTemplate  = "reset-password"
)

// ForgotForm is the submitted forgot password form.
type ForgotForm struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetForm is the submitted new password.
type ResetForm struct {
	Token    string `form:"token"    validate:"required"`
	Password string `form:"password" validate:"required,min=8,max=128"`
}

// Service is the password handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the password handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the password handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	app.Get(ForgotPath, s.GetForgot)
	app.Post(ForgotPath, s.PostForgot)
	app.Get(ResetPath, s.GetReset)
	app.Post(ResetPath, s.PostReset)

	return nil
}

// GetForgot renders the email form.
func (s *Service) GetForgot(c *fiber.Ctx) error {
	return handler.Render(c, s.cfg, forgotTemplate, fiber.Map{"Email": c.Query("email")})
}

// PostForgot requests the reset email. Unknown addresses get the same answer.
func (s *Service) PostForgot(c *fiber.Ctx) error {
	var form ForgotForm

	if err := c.BodyParser(&form); err != nil {
		return handler.Render(c, s.cfg, forgotTemplate, fiber.Map{"Toast": login.ErrInvalidFormData.Error()})
	}

	if err := handler.Validate.Struct(form); err != nil {
		return handler.Render(c, s.cfg, forgotTemplate, fiber.Map{
			"Email":  form.Email,
			"Errors": handler.FieldErrors(err),
		})
	}

	if err := s.engine.RequestPasswordReset(c.UserContext(), form.Email, ResetPath); err != nil {
		log.Error().Err(err).Msg("password reset request failed")

		return handler.Render(c, s.cfg, forgotTemplate, fiber.Map{
			"Email": form.Email,
			"Toast": handler.ErrorToast(err),
		})
	}

	return handler.Render(c, s.cfg, forgotTemplate, fiber.Map{"Email": form.Email, "Sent": true})
}

// GetReset renders the new password form for the token from the email link.
func (s *Service) GetReset(c *fiber.Ctx) error {
	token := c.Query("token")

	toast := handler.Toast(c.Query("error"))
	if token == "" && toast == "" {
		toast = handler.Toast("INVALID_TOKEN")
	}

	return handler.Render(c, s.cfg, resetTemplate, fiber.Map{"Token": token, "Toast": toast})
}

// PostReset sets the new password and continues at the login page.
func (s *Service) PostReset(c *fiber.Ctx) error {
	var form ResetForm

	if err := c.BodyParser(&form); err != nil {
		return handler.Render(c, s.cfg, resetTemplate, fiber.Map{"Toast": login.ErrInvalidFormData.Error()})
	}

	if err := handler.Validate.Struct(form); err != nil {
		return handler.Render(c, s.cfg, resetTemplate, fiber.Map{
			"Token":  form.Token,
			"Errors": handler.FieldErrors(err),
		})
	}

	if err := s.engine.ResetPassword(c.UserContext(), form.Token, form.Password); err != nil {
		return handler.Render(c, s.cfg, resetTemplate, fiber.Map{
			"Token": form.Token,
			"Toast": handler.ErrorToast(err),
		})
	}

	return c.Redirect(handler.WithQuery(handler.LoginPath, "notice", "password-reset"), fiber.StatusSeeOther)
}
