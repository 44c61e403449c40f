package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/web/webtest"
)

type fakeProvider struct{ id string }

func (p fakeProvider) ID() string { return p.id }

func (p fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (p fakeProvider) Exchange(context.Context, string) (*auth.SocialProfile, error) {
	return nil, auth.ErrInvalidState
}

func newTestApp(t *testing.T, env *webtest.Env) *fiber.App {
	t.Helper()

	return env.App(func(app *fiber.App) {
		var s Service
		require.NoError(t, s.Init(app, env.Config, env.Engine))
	})
}

func TestInitRejectsNil(t *testing.T) {
	var s Service
	require.Error(t, s.Init(nil, nil, nil))
}

func TestRedirectTarget(t *testing.T) {
	trusted := []string{"https://app.example.com"}

	tests := []struct {
		redirectTo string
		want       string
	}{
		{"", "/dashboard"},
		{"/settings", "/settings"},
		{"/invitation/abc", "/invitation/abc?accepted=true"},
		{"/invitation/abc?ref=mail", "/invitation/abc?accepted=true&ref=mail"},
		{"https://app.example.com/invitation/abc", "https://app.example.com/invitation/abc?accepted=true"},
		{"https://evil.example.com/invitation/abc", "/dashboard"},
		{"//evil.example.com", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.redirectTo, func(t *testing.T) {
			assert.Equal(t, tt.want, RedirectTarget(tt.redirectTo, trusted))
		})
	}
}

func TestGet(t *testing.T) {
	env := webtest.NewWith(t, []auth.Option{
		auth.WithSocialProvider(fakeProvider{id: auth.ProviderGitHub}),
		auth.WithSocialProvider(fakeProvider{id: auth.ProviderGoogle}),
	})
	app := newTestApp(t, env)

	req := httptest.NewRequest(http.MethodGet, Path+"?error=ACCESS_DENIED&redirectTo=/invitation/abc&email=a@example.com", nil)
	req.AddCookie(&http.Cookie{Name: auth.LastLoginMethodCookie, Value: auth.ProviderGitHub})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := webtest.Body(t, resp)
	assert.Contains(t, body, Template)
	assert.Contains(t, body, `"Toast":"Sign-in was canceled"`)
	assert.Contains(t, body, `"LastUsed":"github"`)
	assert.Contains(t, body, `"Email":"a@example.com"`)

	callback := url.QueryEscape("/invitation/abc?accepted=true")
	assert.Contains(t, body, "provider=github")
	assert.Contains(t, body, "provider=google")
	assert.Contains(t, body, "callbackURL="+callback)
}

func TestPostValidation(t *testing.T) {
	env := webtest.New(t, func(o *auth.Options) {
		o.EmailAndPassword.MinPasswordLength = 4
	})
	env.Credential(t, "alice@example.com", "short12")

	app := newTestApp(t, env)

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"short password", url.Values{"email": {"alice@example.com"}, "password": {"short12"}}, "password"},
		{"invalid email", url.Values{"email": {"alice"}, "password": {"long enough"}}, "email"},
		{"missing email", url.Values{"password": {"long enough"}}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(webtest.Form(Path, tt.form), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Empty(t, webtest.Cookie(resp, auth.SessionCookie), "no sign-in with an invalid form")

			body := webtest.Body(t, resp)
			assert.Contains(t, body, `"`+tt.field+`":`)
			assert.NotContains(t, body, "short12")
		})
	}
}

func TestPost(t *testing.T) {
	env := webtest.New(t)
	env.Credential(t, "alice@example.com", "correct horse")

	app := newTestApp(t, env)

	tests := []struct {
		name       string
		redirectTo string
		want       string
	}{
		{"dashboard", "", "/dashboard"},
		{"invitation", "/invitation/abc", "/invitation/abc?accepted=true"},
		{"untrusted", "https://evil.example.com/", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(webtest.Form(Path, url.Values{
				"email":      {"alice@example.com"},
				"password":   {"correct horse"},
				"redirectTo": {tt.redirectTo},
			}), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
			assert.NotEmpty(t, webtest.Cookie(resp, auth.SessionCookie))
			assert.Equal(t, auth.MethodEmail, webtest.Cookie(resp, auth.LastLoginMethodCookie))
		})
	}
}

func TestPostFailures(t *testing.T) {
	env := webtest.New(t)
	env.Credential(t, "alice@example.com", "correct horse")

	_, err := env.Engine.SignUpEmail(context.Background(), auth.SignUpInput{
		Name: "bob", Email: "bob@example.com", Password: "correct horse",
	}, auth.RequestMeta{})
	require.NoError(t, err)

	app := newTestApp(t, env)

	tests := []struct {
		name  string
		email string
		toast string
	}{
		{"wrong password", "alice@example.com", "Invalid email or password"},
		{"unknown user", "nobody@example.com", "Invalid email or password"},
		{"unverified", "bob@example.com", "Please verify your email address first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password := "correct horse"
			if tt.name == "wrong password" {
				password = "wrong horse!"
			}

			resp, err := app.Test(webtest.Form(Path, url.Values{"email": {tt.email}, "password": {password}}), -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Empty(t, webtest.Cookie(resp, auth.SessionCookie))
			assert.Contains(t, webtest.Body(t, resp), tt.toast)
		})
	}
}

func TestPostInvalidBody(t *testing.T) {
	env := webtest.New(t)
	app := newTestApp(t, env)

	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Contains(t, webtest.Body(t, resp), ErrInvalidFormData.Error())
}
