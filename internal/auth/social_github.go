package auth

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// ProviderGitHub is the id of the GitHub provider.
const ProviderGitHub = "github"

// GitHub signs in with GitHub accounts. The profile comes from the GitHub REST api.
type GitHub struct {
	oauth oauth2.Config
	// newClient builds the api client for a token, replaced in tests.
	newClient func(ctx context.Context, token *oauth2.Token) *github.Client
}

// NewGitHub creates the GitHub provider.
func NewGitHub(clientID, clientSecret, redirectURL string) *GitHub {
	g := &GitHub{
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
	}

	g.newClient = func(ctx context.Context, token *oauth2.Token) *github.Client {
		return github.NewClient(g.oauth.Client(ctx, token))
	}

	return g
}

// ID implements SocialProvider.
func (g *GitHub) ID() string {
	return ProviderGitHub
}

// AuthCodeURL implements SocialProvider.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Exchange implements SocialProvider.
func (g *GitHub) Exchange(ctx context.Context, code string) (*SocialProfile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	profile, err := g.profile(ctx, g.newClient(ctx, token))
	if err != nil {
		return nil, err
	}

	profile.Token = token

	return profile, nil
}

func (g *GitHub) profile(ctx context.Context, client *github.Client) (*SocialProfile, error) {
	u, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get github user: %w", err)
	}

	emails, _, err := client.Users.ListEmails(ctx, &github.ListOptions{PerPage: 100}) //nolint:mnd
	if err != nil {
		return nil, fmt.Errorf("failed to list github emails: %w", err)
	}

	email, verified := primaryEmail(emails, u.GetEmail())

	name := u.GetName()
	if name == "" {
		name = u.GetLogin()
	}

	return &SocialProfile{
		ID:            strconv.FormatInt(u.GetID(), 10),
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		Image:         u.GetAvatarURL(),
	}, nil
}

// primaryEmail picks the primary address, else the public profile address.
func primaryEmail(emails []*github.UserEmail, public string) (string, bool) {
	for _, e := range emails {
		if e.GetPrimary() {
			return e.GetEmail(), e.GetVerified()
		}
	}

	for _, e := range emails {
		if e.GetEmail() == public {
			return public, e.GetVerified()
		}
	}

	return public, false
}
