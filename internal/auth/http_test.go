package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(e *Engine) *fiber.App {
	app := fiber.New()
	app.Use(e.LoadSession())
	e.Routes(app.Group(e.Options().BasePath))

	return app
}

func jsonRequest(method, target, body, token string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}

	return req
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return c.Value
		}
	}

	t.Fatalf("no %s cookie in response", SessionCookie)

	return ""
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out), string(body))
}

func TestHTTPEmailAndOrganizationFlow(t *testing.T) {
	var invited []InvitationEmail

	opts := testOptions()
	opts.Hooks.SendInvitationEmail = func(_ context.Context, in InvitationEmail) error {
		invited = append(invited, in)

		return nil
	}

	e, _, _ := newTestEngine(t, opts)
	app := newTestApp(e)

	resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-up/email",
		`{"name":"Alice","email":"alice@example.com","password":"correct horse"}`, ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	token := sessionCookie(t, resp)

	var lastMethod string
	for _, c := range resp.Cookies() {
		if c.Name == LastLoginMethodCookie {
			lastMethod = c.Value
		}
	}
	assert.Equal(t, MethodEmail, lastMethod)

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/auth/get-session", "", token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var cur CurrentSession
	decode(t, resp, &cur)
	assert.Equal(t, "alice@example.com", cur.User.Email)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/organization/create", `{"name":"Acme"}`, token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/organization/invite-member",
		`{"email":"bob@example.com","role":"admin"}`, token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, invited, 1)
	assert.Equal(t, "Acme", invited[0].Organization.Name)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/organization/invite-member",
		`{"email":"bob@example.com"}`, token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, "USER_IS_ALREADY_INVITED_TO_THIS_ORGANIZATION", body.Code)

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/auth/organization/get-full-organization", "", token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var full FullOrganization
	decode(t, resp, &full)
	assert.Equal(t, "Acme", full.Name)
	assert.Len(t, full.Members, 1)
	assert.Len(t, full.Invitations, 1)

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-out", "", token), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/auth/organization/list", "", token), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPSignInEmail(t *testing.T) {
	e, _, _ := newTestEngine(t, testOptions())
	app := newTestApp(e)

	_, err := e.SignUpEmail(context.Background(), SignUpInput{Name: "Alice", Email: "alice@example.com", Password: "correct horse"}, RequestMeta{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"ok", `{"email":"alice@example.com","password":"correct horse","callbackURL":"/dashboard"}`, fiber.StatusOK, ""},
		{"wrong password", `{"email":"alice@example.com","password":"nope nope"}`, fiber.StatusUnauthorized, "INVALID_EMAIL_OR_PASSWORD"},
		{"missing password", `{"email":"alice@example.com"}`, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"broken json", `{"email":`, fiber.StatusBadRequest, "VALIDATION_ERROR"},
		{"untrusted callback", `{"email":"alice@example.com","password":"correct horse","callbackURL":"https://evil.example"}`, fiber.StatusForbidden, "INVALID_CALLBACK_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-in/email", tt.body, ""), -1)
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)

			if tt.code == "" {
				sessionCookie(t, resp)

				return
			}

			var body ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestHTTPGetSessionWithoutCookie(t *testing.T) {
	e, _, _ := newTestEngine(t, testOptions())

	resp, err := newTestApp(e).Test(jsonRequest(fiber.MethodGet, "/api/auth/get-session", "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "null", string(body))
}

func TestHTTPBearerToken(t *testing.T) {
	e, db, _ := newTestEngine(t, testOptions())
	cur := signIn(t, e, db, "alice@example.com")

	req := jsonRequest(fiber.MethodGet, "/api/auth/list-sessions", "", "")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+cur.Session.Token)

	resp, err := newTestApp(e).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHTTPSocialFlow(t *testing.T) {
	e, p := newSocialEngine(t)
	app := newTestApp(e)

	resp, err := app.Test(jsonRequest(fiber.MethodGet,
		"/api/auth/sign-in/social?provider=fake&callbackURL=%2Fdashboard&errorCallbackURL=%2Flogin", "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)

	state := stateOf(t, resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(jsonRequest(fiber.MethodGet,
		"/api/auth/callback/fake?"+url.Values{"state": {state}, "code": {"abc"}}.Encode(), "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
	assert.NotEmpty(t, sessionCookie(t, resp))
	assert.Equal(t, []string{"abc"}, p.codes)

	// replayed state
	resp, err = app.Test(jsonRequest(fiber.MethodGet,
		"/api/auth/callback/fake?"+url.Values{"state": {state}, "code": {"abc"}}.Encode(), "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?error=STATE_MISMATCH", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/sign-in/social", `{"provider":"fake"}`, ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var started struct {
		URL      string `json:"url"`
		Redirect bool   `json:"redirect"`
	}
	decode(t, resp, &started)
	assert.True(t, started.Redirect)
	assert.True(t, strings.HasPrefix(started.URL, "https://provider.test/authorize"))

	resp, err = app.Test(jsonRequest(fiber.MethodGet,
		"/api/auth/sign-in/social?provider=fake&callbackURL=https%3A%2F%2Fevil.example", "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?error=INVALID_CALLBACK_URL", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/auth/callback/fake?error=access_denied", "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?error=ACCESS_DENIED", resp.Header.Get(fiber.HeaderLocation))
}

func TestHTTPResetPasswordCallback(t *testing.T) {
	ctx := context.Background()
	e, box, _ := newPasswordEngine(t, nil)
	app := newTestApp(e)

	_, err := e.SignUpEmail(ctx, SignUpInput{Name: "Alice", Email: "alice@example.com", Password: "correct horse"}, RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, e.RequestPasswordReset(ctx, "alice@example.com", "/reset-password"))
	require.Len(t, box.resets, 1)

	link, err := url.Parse(box.resets[0].URL)
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, link.RequestURI(), "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/reset-password?token="+box.resets[0].Token, resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(jsonRequest(fiber.MethodGet, "/api/auth/reset-password/bogus?callbackURL=%2Freset-password", "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/reset-password?error=INVALID_TOKEN", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(jsonRequest(fiber.MethodPost, "/api/auth/reset-password",
		`{"token":"`+box.resets[0].Token+`","newPassword":"battery staple"}`, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHTTPVerifyEmailAutoSignIn(t *testing.T) {
	ctx := context.Background()
	e, box, _ := newPasswordEngine(t, func(o *Options) {
		o.EmailVerification.SendOnSignUp = true
		o.EmailVerification.AutoSignInAfterVerification = true
		o.EmailAndPassword.RequireEmailVerification = true
	})
	app := newTestApp(e)

	_, err := e.SignUpEmail(ctx, SignUpInput{
		Name: "Alice", Email: "alice@example.com", Password: "correct horse", CallbackURL: "/dashboard",
	}, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, box.verifications, 1)

	link, err := url.Parse(box.verifications[0].URL)
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(fiber.MethodGet, link.RequestURI(), "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
	assert.NotEmpty(t, sessionCookie(t, resp))

	resp, err = app.Test(jsonRequest(fiber.MethodGet, link.RequestURI(), "", ""), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard?error=INVALID_TOKEN", resp.Header.Get(fiber.HeaderLocation))
}

func TestAddQuery(t *testing.T) {
	assert.Equal(t, "/login?error=X", AddQuery("/login", "error", "X"))
	assert.Equal(t, "https://app.example.com/x?a=1&error=X", AddQuery("https://app.example.com/x?a=1", "error", "X"))
}
