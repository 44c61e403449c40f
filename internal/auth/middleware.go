package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	fiberlog "github.com/tenantgate/tenantgate/internal/logger/adapter/fiber"
)

const localsSession = "auth.session"

// Current returns the session loaded for the request or nil.
func Current(c *fiber.Ctx) *CurrentSession {
	cur, _ := c.Locals(localsSession).(*CurrentSession)

	return cur
}

// token reads the session token from the cookie or a bearer header.
func token(c *fiber.Ctx) string {
	if t := c.Cookies(SessionCookie); t != "" {
		return t
	}

	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}

	return ""
}

// load resolves the session of the request once and keeps it in the locals.
func (e *Engine) load(c *fiber.Ctx) (*CurrentSession, error) {
	if cur := Current(c); cur != nil {
		return cur, nil
	}

	t := token(c)
	if t == "" {
		return nil, ErrUnauthorized
	}

	cur, err := e.GetSession(c.UserContext(), t)
	if err != nil {
		return nil, err
	}

	c.Locals(localsSession, cur)
	c.Locals(fiberlog.LocalsUserID, cur.User.ID)

	return cur, nil
}

// LoadSession attaches the session of the request when there is one, it never rejects.
func (e *Engine) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := e.load(c); err != nil && !errors.Is(err, ErrUnauthorized) {
			log.Error().Err(err).Msg("failed to load session")
		}

		return c.Next()
	}
}

// RequireSession rejects requests without a valid session.
func (e *Engine) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := e.load(c); err != nil {
			return WriteError(c, err)
		}

		return c.Next()
	}
}

// RequirePermission rejects requests whose member role in the active organization
// does not allow action on resource.
func (e *Engine) RequirePermission(resource Resource, action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cur, err := e.load(c)
		if err != nil {
			return WriteError(c, err)
		}

		orgID, err := organizationID(cur, "")
		if err != nil {
			return WriteError(c, err)
		}

		if _, _, err = e.authorize(c.UserContext(), cur, orgID, resource, action); err != nil {
			if errors.Is(err, ErrForbidden) {
				log.Warn().Str("user_id", cur.User.ID).Str("resource", string(resource)).
					Str("action", string(action)).Msg("member lacks required permission")
			}

			return WriteError(c, err)
		}

		return c.Next()
	}
}
