// Package login serves the sign-in page: the email and password form,
// the social sign-in buttons and the last used method badge.
package login

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/handler"
	authmiddleware "github.com/tenantgate/tenantgate/internal/web/middleware/auth"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// Template is the page template.
	Template = "login"
)

// providerNames are the button labels of the social providers.
var providerNames = map[string]string{ //nolint:gochecknoglobals
	auth.ProviderGoogle: "Google",
	auth.ProviderGitHub: "GitHub",
}

// Form is the submitted login form.
type Form struct {
	Email      string `form:"email"      validate:"required,email"`
	Password   string `form:"password"   validate:"required,min=8"`
	RedirectTo string `form:"redirectTo"`
}

// SocialLink is a social sign-in button.
type SocialLink struct {
	ID   string
	Name string
	URL  string
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	engine *auth.Engine
}

// Handler is the login handler.
var Handler = Service{} //nolint:gochecknoglobals

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, engine *auth.Engine) error {
	if app == nil || cfg == nil || engine == nil {
		return errors.New(handler.ErrNilACEFatalLogMsg)
	}

	s.cfg = cfg
	s.engine = engine

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, authmiddleware.RedirectSignedIn, s.Get)
		router.Post(handler.RootPath, s.Post)
	})

	return nil
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	form := Form{
		Email:      c.Query("email"),
		RedirectTo: c.Query("redirectTo"),
	}

	return s.render(c, form, nil, handler.Toast(c.Query("error")))
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	var form Form

	if err := c.BodyParser(&form); err != nil {
		return s.render(c, form, nil, ErrInvalidFormData.Error())
	}

	// the sign-in is never attempted with an invalid form
	if err := handler.Validate.Struct(form); err != nil {
		form.Password = ""

		return s.render(c, form, handler.FieldErrors(err), "")
	}

	cur, err := s.engine.SignInEmail(c.UserContext(), auth.SignInInput{
		Email:    form.Email,
		Password: form.Password,
	}, auth.Meta(c))
	if err != nil {
		if status, _ := auth.ErrorCode(err); status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Msg("sign-in failed")
		}

		form.Password = ""

		return s.render(c, form, nil, handler.ErrorToast(err))
	}

	s.engine.SetSessionCookies(c, &cur.Session, auth.MethodEmail)

	return c.Redirect(RedirectTarget(form.RedirectTo, s.engine.Options().TrustedOrigins), fiber.StatusSeeOther)
}

func (s *Service) render(c *fiber.Ctx, form Form, errs map[string]string, toast string) error {
	return handler.Render(c, s.cfg, Template, fiber.Map{
		"Email":      form.Email,
		"RedirectTo": form.RedirectTo,
		"Errors":     errs,
		"Toast":      toast,
		"LastUsed":   c.Cookies(auth.LastLoginMethodCookie),
		"Social":     s.socialLinks(form.RedirectTo),
		"SignUpURL":  signUpURL(form.RedirectTo),
	})
}

// socialLinks start the provider redirect through the auth routes.
// A failing start comes back to this page with ?error=.
func (s *Service) socialLinks(redirectTo string) []SocialLink {
	opts := s.engine.Options()
	target := RedirectTarget(redirectTo, opts.TrustedOrigins)

	errorTarget := Path
	if redirectTo != "" {
		errorTarget = handler.LoginRedirect(redirectTo)
	}

	links := make([]SocialLink, 0, len(providerNames))

	for _, id := range s.engine.Providers() {
		q := url.Values{
			"provider":         {id},
			"callbackURL":      {target},
			"errorCallbackURL": {errorTarget},
		}

		name := providerNames[id]
		if name == "" {
			name = id
		}

		links = append(links, SocialLink{ID: id, Name: name, URL: opts.BasePath + "/sign-in/social?" + q.Encode()})
	}

	return links
}

func signUpURL(redirectTo string) string {
	if redirectTo == "" {
		return "/signup"
	}

	return "/signup?redirectTo=" + url.QueryEscape(redirectTo)
}
