package authconfig

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofiber/storage/memory/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/db/controller/invitation"
	"github.com/tenantgate/tenantgate/internal/db/controller/organization"
	"github.com/tenantgate/tenantgate/internal/db/controller/session"
	"github.com/tenantgate/tenantgate/internal/db/dbtest"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/mail"
)

// outbox is a mail.Sender that keeps the messages.
type outbox struct {
	messages []mail.Message
	err      error
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.messages = append(o.messages, msg)

	return o.err
}

func testConfig() *config.Config {
	return &config.Config{
		Title:  "TenantGate",
		AppURL: "http://localhost:3000",
		Webserver: config.Webserver{
			Session: config.Session{ExpiryTime: 7 * 24 * time.Hour},
		},
		Auth: config.Auth{RequireEmailVerification: true, SendVerificationOnSignUp: true},
		Organization: config.Organization{
			InvitationExpiry: 48 * time.Hour,
			MembershipLimit:  100,
		},
	}
}

func newEngine(t *testing.T) (*auth.Engine, *gorm.DB, *outbox) {
	t.Helper()

	db := dbtest.Open(t)
	box := &outbox{}

	renderer, err := mail.NewRenderer("TenantGate", language.English)
	require.NoError(t, err)

	opts := New(testConfig(), Deps{DB: db, Mailer: box, Renderer: renderer, Logger: zerolog.Nop()})

	e, err := auth.New(db, opts, memory.New())
	require.NoError(t, err)

	return e, db, box
}

func signIn(t *testing.T, e *auth.Engine, db *gorm.DB, email string) *auth.CurrentSession {
	t.Helper()

	var u *models.User

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		u = &existing
	} else {
		u = dbtest.User(t, db, email)
	}

	s, err := e.CreateSession(context.Background(), u.ID, auth.RequestMeta{})
	require.NoError(t, err)

	cur, err := e.GetSession(context.Background(), s.Token)
	require.NoError(t, err)

	return cur
}

func TestNewOptions(t *testing.T) {
	cfg := testConfig()
	cfg.FrontendURL = "http://localhost:5173"

	opts := New(cfg, Deps{})

	assert.Equal(t, "http://localhost:3000", opts.BaseURL)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, opts.TrustedOrigins)
	assert.True(t, opts.EmailAndPassword.Enabled)
	assert.True(t, opts.EmailAndPassword.RequireEmailVerification)
	assert.True(t, opts.EmailVerification.SendOnSignUp)
	assert.False(t, opts.Organization.RequireEmailVerificationOnInvitation)
	assert.Equal(t, 48*time.Hour, opts.Organization.InvitationExpiresIn)
	assert.Equal(t, 100, opts.Organization.MembershipLimit)
	assert.NotNil(t, opts.Hooks.BeforeSessionCreate)
	assert.NotNil(t, opts.Hooks.AfterOrganizationCreate)
	assert.NotNil(t, opts.Hooks.SendInvitationEmail)
}

func TestActiveOrganizationHook(t *testing.T) {
	ctx := context.Background()
	base := models.Session{UserID: "u1", Token: "t"}

	t.Run("found", func(t *testing.T) {
		hook := ActiveOrganizationHook(func(context.Context, string) (*models.Organization, error) {
			return &models.Organization{ID: "org-1"}, nil
		}, zerolog.Nop())

		s, err := hook(ctx, base)
		require.NoError(t, err)
		require.NotNil(t, s.ActiveOrganizationID)
		assert.Equal(t, "org-1", *s.ActiveOrganizationID)
	})

	t.Run("no organization", func(t *testing.T) {
		hook := ActiveOrganizationHook(func(context.Context, string) (*models.Organization, error) {
			return nil, nil //nolint:nilnil
		}, zerolog.Nop())

		s, err := hook(ctx, base)
		require.NoError(t, err)
		assert.Nil(t, s.ActiveOrganizationID)
	})

	t.Run("lookup error", func(t *testing.T) {
		hook := ActiveOrganizationHook(func(context.Context, string) (*models.Organization, error) {
			return nil, errors.New("db down")
		}, zerolog.Nop())

		s, err := hook(ctx, base)
		require.NoError(t, err)
		assert.Equal(t, base, s)
	})
}

func TestSessionAugmentation(t *testing.T) {
	ctx := context.Background()
	e, db, _ := newEngine(t)

	alice := signIn(t, e, db, "alice@example.com")
	assert.Empty(t, alice.ActiveOrganizationID(), "no memberships, no active organization")

	acme, err := e.CreateOrganization(ctx, alice, auth.CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	next := signIn(t, e, db, "alice@example.com")
	assert.Equal(t, acme.ID, next.ActiveOrganizationID())

	globex, err := e.CreateOrganization(ctx, next, auth.CreateOrganizationInput{Name: "Globex"})
	require.NoError(t, err)

	next = signIn(t, e, db, "alice@example.com")
	assert.Equal(t, globex.ID, next.ActiveOrganizationID(), "latest active organization wins")

	// once the membership is gone the oldest remaining membership is used
	bob := signIn(t, e, db, "bob@example.com")
	_, err = organization.AddMember(db, globex.ID, bob.User.ID, models.RoleOwner)
	require.NoError(t, err)

	_, err = e.RemoveMember(ctx, next, globex.ID, "alice@example.com")
	require.NoError(t, err)

	next = signIn(t, e, db, "alice@example.com")
	assert.Equal(t, acme.ID, next.ActiveOrganizationID())
}

func TestCreateOrganizationTagsExistingSessions(t *testing.T) {
	ctx := context.Background()
	e, db, _ := newEngine(t)

	first := signIn(t, e, db, "alice@example.com")
	second := signIn(t, e, db, "alice@example.com")

	org, err := e.CreateOrganization(ctx, second, auth.CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	sessions, err := session.ListForUser(db, first.User.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	for _, s := range sessions {
		require.NotNil(t, s.ActiveOrganizationID)
		assert.Equal(t, org.ID, *s.ActiveOrganizationID)
	}
}

func TestInvitationEmail(t *testing.T) {
	ctx := context.Background()
	e, db, box := newEngine(t)

	alice := signIn(t, e, db, "alice@example.com")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", alice.User.ID).Update("name", "Alice").Error)
	alice.User.Name = "Alice"

	_, err := e.CreateOrganization(ctx, alice, auth.CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	inv, err := e.InviteMember(ctx, alice, auth.InviteInput{Email: "newcomer@example.com"})
	require.NoError(t, err)

	require.Len(t, box.messages, 1)
	msg := box.messages[0]
	assert.Equal(t, "newcomer@example.com", msg.To)
	assert.Equal(t, "You've been invited to join our organization", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/invitation/"+inv.ID)
	assert.Contains(t, msg.HTML, "Alice")
	assert.Contains(t, msg.HTML, "Acme")
}

func TestInvitationEmailFailure(t *testing.T) {
	ctx := context.Background()
	e, db, box := newEngine(t)
	box.err = errors.New("smtp down")

	alice := signIn(t, e, db, "alice@example.com")

	org, err := e.CreateOrganization(ctx, alice, auth.CreateOrganizationInput{Name: "Acme"})
	require.NoError(t, err)

	_, err = e.InviteMember(ctx, alice, auth.InviteInput{Email: "newcomer@example.com"})
	require.ErrorIs(t, err, box.err)

	invs, err := invitation.ListForOrganization(db, org.ID)
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestVerificationAndResetEmails(t *testing.T) {
	ctx := context.Background()
	e, _, box := newEngine(t)

	_, err := e.SignUpEmail(ctx, auth.SignUpInput{Name: "Alice", Email: "alice@example.com", Password: "correct horse"}, auth.RequestMeta{})
	require.NoError(t, err)

	require.Len(t, box.messages, 1)
	assert.Equal(t, "Verify your email", box.messages[0].Subject)
	assert.Contains(t, box.messages[0].HTML, "http://localhost:3000/api/auth/verify-email?token=")

	require.NoError(t, e.RequestPasswordReset(ctx, "alice@example.com", "/reset-password"))
	require.Len(t, box.messages, 2)
	assert.Equal(t, "Reset your password", box.messages[1].Subject)
	assert.Contains(t, box.messages[1].HTML, "http://localhost:3000/api/auth/reset-password/")
}

func TestInvitationLink(t *testing.T) {
	assert.Equal(t, "https://app.example.com/invitation/abc", InvitationLink("https://app.example.com/", "abc"))
	assert.Equal(t, "https://app.example.com/invitation/abc", InvitationLink("https://app.example.com", "abc"))
}

func TestProviders(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.GitHub = config.OAuthClient{ClientID: "id", ClientSecret: "secret"}
	cfg.Auth.Google = config.OAuthClient{ClientID: "only-id"}

	opts := New(cfg, Deps{})
	providers := Providers(context.Background(), cfg, opts)
	require.Len(t, providers, 1)

	e, err := auth.New(dbtest.Open(t), opts, memory.New(), providers...)
	require.NoError(t, err)
	assert.True(t, e.HasProvider(auth.ProviderGitHub))
	assert.False(t, e.HasProvider(auth.ProviderGoogle))
}
