package login

import (
	"strings"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/web/handler"
)

// RedirectTarget is where the browser goes after a successful sign-in.
// Empty and untrusted targets fall back to the dashboard. Invitation pages get
// accepted=true so they can tell a visit after sign-in from a fresh one.
func RedirectTarget(redirectTo string, trusted []string) string {
	if redirectTo == "" || !auth.IsTrusted(trusted, redirectTo) {
		return handler.DashboardPath
	}

	if strings.Contains(redirectTo, "/invitation/") {
		return auth.AddQuery(redirectTo, "accepted", "true")
	}

	return redirectTo
}
