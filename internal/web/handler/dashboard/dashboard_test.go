package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/web/webtest"
)

func newTestApp(t *testing.T, env *webtest.Env) *fiber.App {
	t.Helper()

	return env.App(func(app *fiber.App) {
		var s Service
		require.NoError(t, s.Init(app, env.Config, env.Engine))
	})
}

func post(t *testing.T, app *fiber.App, target, token string, form url.Values) *http.Response {
	t.Helper()

	resp, err := app.Test(webtest.WithSession(webtest.Form(target, form), token), -1)
	require.NoError(t, err)

	return resp
}

func get(t *testing.T, app *fiber.App, token string) string {
	t.Helper()

	resp, err := app.Test(webtest.WithSession(httptest.NewRequest(http.MethodGet, Path, nil), token), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return webtest.Body(t, resp)
}

func TestRequiresLogin(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?redirectTo=%2Fdashboard", resp.Header.Get("Location"))
}

func TestWithoutOrganization(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	body := get(t, app, env.SessionToken(t, "alice@example.com"))
	assert.Contains(t, body, TemplateName)
	assert.Regexp(t, `"Organizations":(\[\]|null)`, body)
	assert.NotContains(t, body, `"CanInvite"`)
	assert.NotContains(t, body, `"Role"`)
}

func TestCreateOrganizationAndInvite(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	token := env.SessionToken(t, "alice@example.com")

	resp := post(t, app, Path+"/organizations", token, url.Values{"name": {"Acme"}, "slug": {"acme"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard?notice=organization-added", resp.Header.Get("Location"))

	cur := env.Current(t, token)
	require.NotEmpty(t, cur.ActiveOrganizationID())

	body := get(t, app, token)
	assert.Contains(t, body, `"slug":"acme"`)
	assert.Contains(t, body, `"Role":"owner"`)
	assert.Contains(t, body, `"CanInvite":true`)

	resp = post(t, app, Path+"/invitations", token, url.Values{"email": {"bob@example.com"}, "role": {"admin"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard?notice=invited", resp.Header.Get("Location"))

	require.Len(t, env.Outbox.Invitations, 1)
	assert.Equal(t, "bob@example.com", env.Outbox.Invitations[0].Email)
	assert.Equal(t, models.RoleAdmin, env.Outbox.Invitations[0].Role)

	// inviting twice is refused and shown as a toast
	resp = post(t, app, Path+"/invitations", token, url.Values{"email": {"bob@example.com"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), auth.ErrAlreadyInvited.Error())

	resp = post(t, app, Path+"/invitations/"+env.Outbox.Invitations[0].ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var inv models.Invitation
	require.NoError(t, env.DB.First(&inv, "id = ?", env.Outbox.Invitations[0].ID).Error)
	assert.Equal(t, models.InvitationCanceled, inv.Status)
}

func TestInviteValidation(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	token := env.SessionToken(t, "alice@example.com")

	resp := post(t, app, Path+"/invitations", token, url.Values{"email": {"bob"}, "role": {"king"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := webtest.Body(t, resp)
	assert.Contains(t, body, `"email":"Please enter a valid email address"`)
	assert.Contains(t, body, `"role":"Invalid value"`)
	assert.Empty(t, env.Outbox.Invitations)
}

func TestMemberCannotInvite(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	ctx := context.Background()
	owner := env.Current(t, env.SessionToken(t, "alice@example.com"))

	_, err := env.Engine.CreateOrganization(ctx, owner, auth.CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = env.Engine.InviteMember(ctx, owner, auth.InviteInput{Email: "bob@example.com"})
	require.NoError(t, err)

	bobToken := env.SessionToken(t, "bob@example.com")
	_, _, err = env.Engine.AcceptInvitation(ctx, env.Current(t, bobToken), env.Outbox.Invitations[0].ID)
	require.NoError(t, err)

	body := get(t, app, bobToken)
	assert.Contains(t, body, `"Role":"member"`)
	assert.Contains(t, body, `"CanInvite":false`)

	resp := post(t, app, Path+"/invitations", bobToken, url.Values{"email": {"carol@example.com"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, webtest.Body(t, resp), auth.ErrForbidden.Error())
}

func TestSetActive(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	ctx := context.Background()
	token := env.SessionToken(t, "alice@example.com")

	first, err := env.Engine.CreateOrganization(ctx, env.Current(t, token), auth.CreateOrganizationInput{Name: "First"})
	require.NoError(t, err)

	_, err = env.Engine.CreateOrganization(ctx, env.Current(t, token), auth.CreateOrganizationInput{Name: "Second"})
	require.NoError(t, err)

	resp := post(t, app, Path+"/active", token, url.Values{"organizationId": {first.ID}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, first.ID, env.Current(t, token).ActiveOrganizationID())

	resp = post(t, app, Path+"/active", token, url.Values{"organizationId": {"unknown"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first.ID, env.Current(t, token).ActiveOrganizationID())
}
