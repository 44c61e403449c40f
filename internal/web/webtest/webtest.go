// Package webtest builds auth engines and fiber apps for page handler tests.
package webtest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/dbtest"
	"github.com/tenantgate/tenantgate/internal/db/models"
)

// BaseURL is the app url of test engines.
const BaseURL = "http://localhost:3000"

// NoOpViews renders the template name followed by the page data as JSON,
// so tests can assert on what a handler passed to its template.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data any, _ ...string) error {
	_, _ = io.WriteString(w, name+"\n")

	if m, ok := data.(fiber.Map); ok {
		// Current is large and rarely interesting
		out := make(fiber.Map, len(m))
		for k, v := range m {
			if k != "Current" {
				out[k] = v
			}
		}

		_ = json.NewEncoder(w).Encode(out)
	}

	return nil
}

// Outbox records the emails an engine asked to send.
type Outbox struct {
	mu            sync.Mutex
	Invitations   []auth.InvitationEmail
	Verifications []auth.VerificationEmail
	Resets        []auth.ResetPasswordEmail
}

// Env is an engine on an in-memory database.
type Env struct {
	Engine *auth.Engine
	DB     *gorm.DB
	Config *config.Config
	Outbox *Outbox
}

// Config is the configuration pages are rendered with in tests.
func Config() *config.Config {
	return &config.Config{
		Title:  "TenantGate",
		AppURL: BaseURL,
		Webserver: config.Webserver{
			Port:          3000,
			CheckAliveURI: "/checkalive",
			Session:       config.Session{ExpiryTime: time.Hour},
		},
	}
}

// New creates an engine with email and password enabled and verification required.
// The mutate functions may change the options before the engine is built.
func New(t *testing.T, mutate ...func(*auth.Options)) *Env {
	t.Helper()

	return NewWith(t, nil, mutate...)
}

// NewWith is New with engine options such as social providers.
func NewWith(t *testing.T, engineOpts []auth.Option, mutate ...func(*auth.Options)) *Env {
	t.Helper()

	db := dbtest.Open(t)
	box := &Outbox{}

	opts := auth.Options{
		BaseURL:        BaseURL,
		TrustedOrigins: []string{BaseURL},
		EmailAndPassword: auth.EmailAndPasswordOptions{
			Enabled:                  true,
			RequireEmailVerification: true,
		},
		Hooks: auth.Hooks{
			SendInvitationEmail: func(_ context.Context, in auth.InvitationEmail) error {
				box.mu.Lock()
				defer box.mu.Unlock()

				box.Invitations = append(box.Invitations, in)

				return nil
			},
			SendVerificationEmail: func(_ context.Context, in auth.VerificationEmail) error {
				box.mu.Lock()
				defer box.mu.Unlock()

				box.Verifications = append(box.Verifications, in)

				return nil
			},
			SendResetPassword: func(_ context.Context, in auth.ResetPasswordEmail) error {
				box.mu.Lock()
				defer box.mu.Unlock()

				box.Resets = append(box.Resets, in)

				return nil
			},
		},
	}

	for _, m := range mutate {
		m(&opts)
	}

	e, err := auth.New(db, opts, memory.New(), engineOpts...)
	require.NoError(t, err)

	return &Env{Engine: e, DB: db, Config: Config(), Outbox: box}
}

// App is a fiber app with no-op views, the session middleware and the auth routes.
func (env *Env) App(register func(app *fiber.App)) *fiber.App {
	app := fiber.New(fiber.Config{Views: NoOpViews{}})
	app.Use(env.Engine.LoadSession())
	env.Engine.Routes(app.Group(env.Engine.Options().BasePath))

	register(app)

	return app
}

// Credential signs up a user with a password and marks the email verified.
func (env *Env) Credential(t *testing.T, email, password string) *models.User {
	t.Helper()

	res, err := env.Engine.SignUpEmail(context.Background(), auth.SignUpInput{
		Name:     strings.Split(email, "@")[0],
		Email:    email,
		Password: password,
	}, auth.RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, env.DB.Model(&models.User{}).
		Where("id = ?", res.User.ID).
		Update("email_verified", true).Error)

	res.User.EmailVerified = true

	return &res.User
}

// SessionToken stores a verified user, or reuses the one with this email, and returns a session token.
func (env *Env) SessionToken(t *testing.T, email string) string {
	t.Helper()

	var u models.User
	if err := env.DB.Where("email = ?", email).First(&u).Error; err != nil {
		u = *dbtest.User(t, env.DB, email)
	}

	s, err := env.Engine.CreateSession(context.Background(), u.ID, auth.RequestMeta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	return s.Token
}

// Current loads the session of token.
func (env *Env) Current(t *testing.T, token string) *auth.CurrentSession {
	t.Helper()

	cur, err := env.Engine.GetSession(context.Background(), token)
	require.NoError(t, err)

	return cur
}

// Form is a form post to target.
func Form(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return req
}

// WithSession adds the session cookie to req.
func WithSession(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})

	return req
}

// Body reads the response body.
func Body(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return string(b)
}

// Cookie returns the value of the named response cookie or "".
func Cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}

	return ""
}
