package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	authengine "github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

// RequireLogin sends visitors without a session to the login page,
// which continues at the requested page after sign-in.
func RequireLogin(c *fiber.Ctx) error {
	if authengine.Current(c) != nil {
		return c.Next()
	}

	if c.Method() != fiber.MethodGet {
		return c.Redirect(handler.LoginPath, fiber.StatusSeeOther)
	}

	return c.Redirect(handler.LoginRedirect(c.OriginalURL()), fiber.StatusSeeOther)
}

// RedirectSignedIn sends signed-in users away from the login and sign-up pages.
func RedirectSignedIn(c *fiber.Ctx) error {
	if authengine.Current(c) == nil || c.Method() != fiber.MethodGet {
		return c.Next()
	}

	if target := c.Query("redirectTo"); target != "" && strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		return c.Redirect(target, fiber.StatusSeeOther)
	}

	return c.Redirect(handler.DashboardPath, fiber.StatusSeeOther)
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), handler.LoginPath)
}
