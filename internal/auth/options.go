package auth

import (
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	defaultBasePath           = "/api/auth"
	defaultSessionExpiresIn   = 7 * 24 * time.Hour
	defaultVerificationExpiry = time.Hour
	defaultResetExpiry        = time.Hour
	defaultMinPasswordLength  = 8
	defaultMaxPasswordLength  = 128
	defaultInvitationExpiry   = 48 * time.Hour
	defaultMembershipLimit    = 100
	defaultStateExpiry        = 10 * time.Minute

	// SessionCookie holds the session token.
	SessionCookie = "session"
	// LastLoginMethodCookie holds the method of the last successful sign-in on this device.
	LastLoginMethodCookie = "last_login_method"
)

// SessionOptions configure session lifetime.
type SessionOptions struct {
	ExpiresIn time.Duration
}

// EmailVerificationOptions configure the verification email.
type EmailVerificationOptions struct {
	SendOnSignUp bool
	ExpiresIn    time.Duration
	// AutoSignInAfterVerification creates a session when the link is opened.
	AutoSignInAfterVerification bool
}

// EmailAndPasswordOptions configure credential sign-in.
type EmailAndPasswordOptions struct {
	Enabled                  bool
	RequireEmailVerification bool
	MinPasswordLength        int
	MaxPasswordLength        int
	ResetPasswordExpiresIn   time.Duration
	// RevokeSessionsOnPasswordReset signs out every device after a reset.
	RevokeSessionsOnPasswordReset bool
}

// OrganizationOptions configure tenants, memberships and invitations.
type OrganizationOptions struct {
	InvitationExpiresIn                  time.Duration
	MembershipLimit                      int
	RequireEmailVerificationOnInvitation bool
	AccessControl                        AccessControl
}

// Options is the immutable configuration of an Engine.
type Options struct {
	// BaseURL is the public origin of the app, e.g. https://app.example.com.
	BaseURL string
	// BasePath is where the auth routes are mounted.
	BasePath string
	// TrustedOrigins are the origins redirects and cross origin calls may target.
	TrustedOrigins []string

	Session           SessionOptions
	EmailVerification EmailVerificationOptions
	EmailAndPassword  EmailAndPasswordOptions
	Organization      OrganizationOptions
	Hooks             Hooks
}

func (o Options) withDefaults() Options {
	o.BaseURL = strings.TrimSuffix(o.BaseURL, "/")

	if o.BasePath == "" {
		o.BasePath = defaultBasePath
	}

	o.TrustedOrigins = slices.DeleteFunc(slices.Clone(o.TrustedOrigins), func(s string) bool { return s == "" })
	if o.BaseURL != "" && !slices.Contains(o.TrustedOrigins, o.BaseURL) {
		o.TrustedOrigins = append(o.TrustedOrigins, o.BaseURL)
	}

	if o.Session.ExpiresIn == 0 {
		o.Session.ExpiresIn = defaultSessionExpiresIn
	}

	if o.EmailVerification.ExpiresIn == 0 {
		o.EmailVerification.ExpiresIn = defaultVerificationExpiry
	}

	if o.EmailAndPassword.MinPasswordLength == 0 {
		o.EmailAndPassword.MinPasswordLength = defaultMinPasswordLength
	}

	if o.EmailAndPassword.MaxPasswordLength == 0 {
		o.EmailAndPassword.MaxPasswordLength = defaultMaxPasswordLength
	}

	if o.EmailAndPassword.ResetPasswordExpiresIn == 0 {
		o.EmailAndPassword.ResetPasswordExpiresIn = defaultResetExpiry
	}

	if o.Organization.InvitationExpiresIn == 0 {
		o.Organization.InvitationExpiresIn = defaultInvitationExpiry
	}

	if o.Organization.MembershipLimit == 0 {
		o.Organization.MembershipLimit = defaultMembershipLimit
	}

	if o.Organization.AccessControl == nil {
		o.Organization.AccessControl = DefaultAccessControl()
	}

	return o
}

// SecureCookies reports whether cookies need the Secure flag, true for https base urls.
func (o Options) SecureCookies() bool {
	return strings.HasPrefix(o.BaseURL, "https://")
}

// CallbackURL is the oauth redirect url of a social provider.
func (o Options) CallbackURL(providerID string) string {
	o = o.withDefaults()

	return o.BaseURL + o.BasePath + "/callback/" + providerID
}

// IsTrusted reports whether raw is a same site path or an url on one of the trusted origins.
func IsTrusted(origins []string, raw string) bool {
	if raw == "" {
		return false
	}

	if strings.HasPrefix(raw, "/") {
		// protocol relative urls and backslash tricks leave the site
		return !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}

	origin := u.Scheme + "://" + u.Host

	return slices.ContainsFunc(origins, func(o string) bool {
		return strings.TrimSuffix(o, "/") == origin
	})
}
