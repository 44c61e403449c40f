package config

import (
	"time"

	"github.com/tenantgate/tenantgate/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration // lifetime of a sign-in session
}

// Config overall data structure.
type Config struct {
	DevMode      bool   // enable dev mode for development
	Title        string // product name shown in pages and emails
	AppURL       string // public base url of the app (NEXT_PUBLIC_APP_URL)
	FrontendURL  string // optional separate frontend origin (NEXT_PUBLIC_FRONTEND_URL)
	DB           DB
	Log          logger.Log
	Webserver    Webserver
	Auth         Auth
	Organization Organization
	Mail         Mail
}

// DB holds the database configuration settings.
type DB struct {
	Engine   string // postgres, mysql or sqlite
	URL      string // full connection url, used by postgres (DATABASE_URL)
	Path     string // sqlite file path
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Webserver implement webserver settings.
type Webserver struct {
	Port          int     // listening port for the webserver
	ShutDownTime  int     // wait time for shutdown
	CheckAliveURI string  // uri answered by the load balancer probe
	RateLimit     int     // max requests per RateWindow and ip on /api/auth
	RateWindow    int     // rate limit window in seconds
	Session       Session // session settings
}

// OAuthClient holds the credentials of one social sign-in provider.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether both credentials are present.
func (o OAuthClient) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// Auth holds email/password and social provider settings.
type Auth struct {
	RequireEmailVerification bool
	SendVerificationOnSignUp bool
	Google                   OAuthClient
	GitHub                   OAuthClient
}

// Organization holds the multi-tenant membership settings.
type Organization struct {
	InvitationExpiry time.Duration
	MembershipLimit  int
}

// SMTP holds the outgoing mail server settings.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

// Mail holds email dispatch settings.
type Mail struct {
	Driver   string // smtp or log
	From     string
	Language string // language of subjects and plain text parts, e.g. en or de
	SMTP     SMTP
}

// TrustedOrigins returns the configured app and frontend origins, skipping empty ones.
func (c *Config) TrustedOrigins() []string {
	out := make([]string, 0, 2) //nolint:mnd

	for _, origin := range []string{c.AppURL, c.FrontendURL} {
		if origin != "" {
			out = append(out, origin)
		}
	}

	return out
}
